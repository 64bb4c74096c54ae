package env

import (
	"log"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

type EnvStruct struct {
	HOME           string `zog:"HOME"`
	PORT           int    `zog:"TODOD_PORT"`
	OPENAI_API_KEY string `zog:"OPENAI_API_KEY"`
	MODEL          string `zog:"TODOD_MODEL"`
	LISTEN_ADDR    string
	BASE_URL       string
}

var env *EnvStruct

var EnvSchema = z.Struct(z.Shape{
	"HOME":           z.String(),
	"PORT":           z.Int().Default(57911),
	"OPENAI_API_KEY": z.String().Optional(),
	"MODEL":          z.String().Optional(),
})

func Get() *EnvStruct {
	if env == nil {
		env = &EnvStruct{}
		errs := EnvSchema.Parse(zenv.NewDataProvider(), env)
		if errs != nil {
			log.Fatal("[todod] Failed to parse environment variables", errs)
		}

		env.LISTEN_ADDR = "localhost:" + strconv.Itoa(env.PORT)
		env.BASE_URL = "http://" + env.LISTEN_ADDR
	}
	return env
}
