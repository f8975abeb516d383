// Package cli holds the process-exit plumbing shared by every forge
// subcommand.
package cli

import (
	"errors"
	"log"
	"os"

	"github.com/forgebuild/forge/common/berror"
)

var Stderr = log.New(os.Stderr, "", 0)
var Stdout = log.New(os.Stdout, "", 0)

// Exit prints err's terminal-line failure message and exits with the
// process exit code the error taxonomy maps its Kind to (§6, §7). A nil
// error exits 0.
func Exit(err error) {
	if err == nil {
		os.Exit(0)
	}

	var berr berror.Error
	if errors.As(err, &berr) {
		Stderr.Println(berr.Error())
		os.Exit(berr.Kind().ExitCode())
	}

	Stderr.Println(err)
	os.Exit(15)
}
