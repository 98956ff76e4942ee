package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/aussiebroadwan/otpgate/internal/otp/app"
)

func main() {
	f := app.Flags()
	if err := f.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("failed to parse flags: %v", err)
	}

	if v, _ := f.GetBool("version"); v {
		fmt.Println(app.BuildVersion)
		return
	}

	cfg, err := app.LoadConfig(f)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
