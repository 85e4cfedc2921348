package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/mentorhub/internal/flagx"
	"github.com/dmitrijs2005/mentorhub/internal/timex"
)

// parseFlags populates Config from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-m int      maximum open pooled connections
//	-w string   connection acquire timeout (e.g. "5s")
//	-t string   session token validity (e.g. "31d", "720h")
//	-b int      bcrypt cost
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-m", "-w", "-t", "-b", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.MaxOpenConns, "m", config.MaxOpenConns, "max open database connections")
	acquireTimeout := fs.String("w", config.AcquireTimeout.String(), "connection acquire timeout")
	tokenValidity := fs.String("t", config.TokenValidityDuration.String(), "session token validity")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	var err error
	if config.AcquireTimeout, err = timex.ParseDuration(*acquireTimeout); err != nil {
		panic(err)
	}
	if config.TokenValidityDuration, err = timex.ParseDuration(*tokenValidity); err != nil {
		panic(err)
	}
}
