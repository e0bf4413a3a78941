package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/solemarket/solechat/internal/app"
	"github.com/solemarket/solechat/internal/session"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	toUser := flag.Int64("to-user", 0, "open the conversation with this user id after sign-in")
	flag.Parse()

	profile := session.Resolve(*profileFlag)
	if err := session.ValidateProfile(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fxApp := fx.New(
		app.Module(app.Params{Profile: profile, ToUser: *toUser}),
		fx.NopLogger, // fx banner would paint over the terminal UI
	)

	fxApp.Run()
}
