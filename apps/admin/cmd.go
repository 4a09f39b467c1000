package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/darasahub/darasa/core/principal"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db  *sql.DB
	svc *principal.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addstaff -username USERNAME -email EMAIL [-name NAME] [-role ROLE] [-tenant TENANT] - create or update a staff account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL [-role ROLE] - reset an account's password")
	fmt.Println("  migrate COMMAND [args] - run database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffName := addStaffCmd.String("name", "", "The staff member's full name.")
	addStaffUname := addStaffCmd.String("username", "", "The staff member's username. The password will be prompted next.")
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email.")
	addStaffRole := addStaffCmd.String("role", principal.RoleAdmin, "The staff role to assign.")
	addStaffTenant := addStaffCmd.String("tenant", "", "The school the account belongs to.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username or email. The password will be prompted next.")
	resetPasswordRole := resetPasswordCmd.String("role", "", "Optional role tag pinning the store to search (eg. student, parent).")

	switch args[1] {
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffUname == "" || *addStaffEmail == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffName, *addStaffUname, *addStaffEmail, *addStaffRole, *addStaffTenant, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, *resetPasswordRole, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
