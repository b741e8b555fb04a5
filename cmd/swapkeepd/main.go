package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/commands/server"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome = "home"
	varHome  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".swapkeepd")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
}

func helpMessage() {
	fmt.Fprint(flag.CommandLine.Output(), `swapkeepd
        Token for unique asset escrow daemon

help     Print this message
init     Generate keys, configuration and genesis file
start    Serve the escrow API and run the upkeep
validate Check genesis files
version  Print the app version

`)
	flag.PrintDefaults()
}

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "swapkeep")

	flag.Usage = helpMessage
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	var err error
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = server.InitCmd(logger, *varHome, rest)
	case "start":
		err = server.StartCmd(logger, *varHome, rest)
	case "validate":
		err = server.ValidateCmd(*varHome, rest)
	case "version":
		fmt.Println(swapkeep.Version())
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		helpMessage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
