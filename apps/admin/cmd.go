package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ripoti/core"
	"github.com/trezcool/ripoti/core/access"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sqlx.DB
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run DB migrations (up, down, status, ...)")
	fmt.Println("  seed - load a demo tenant with classes, students, terms and grades")
	fmt.Println("  mktoken -tenant ID -principal ID -role ROLE [-name NAME] [-year YEAR] - sign a dev JWT")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	mkTokenCmd := flag.NewFlagSet("mktoken", flag.ExitOnError)
	mkTokenTenant := mkTokenCmd.String("tenant", "", "The tenant ID the token is scoped to.")
	mkTokenPrincipal := mkTokenCmd.String("principal", "", "The principal ID the token authenticates.")
	mkTokenRole := mkTokenCmd.String("role", "", "The principal's role: teacher, supervisor or admin.")
	mkTokenName := mkTokenCmd.String("name", "", "The principal's display name.")
	mkTokenYear := mkTokenCmd.String("year", "", "The academic year used to resolve class assignments.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	case "mktoken":
		if err := mkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *mkTokenTenant == "" || *mkTokenPrincipal == "" || !access.Role(*mkTokenRole).Valid() {
			mkTokenCmd.Usage()
			return errHelp
		}
		return cli.mkToken(*mkTokenTenant, *mkTokenPrincipal, *mkTokenRole, *mkTokenName, *mkTokenYear)
	default:
		cli.printUsage()
		return errHelp
	}
}
