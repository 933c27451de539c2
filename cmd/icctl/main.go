package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/otpic/internal/config"
	"github.com/danmuck/otpic/internal/observability"
	"github.com/rs/zerolog/log"
)

const usage = `usage: icctl <command> [flags]

commands:
  types                          list registered types and their descriptors
  encode -type NAME -json VALUE  encode a JSON value as an external term (hex)
  decode -type NAME HEX          decode an external term to JSON
  decode -any HEX                decode a tagged any value to JSON
  serve  -config PATH            run the inspection HTTP server
  config -output PATH | -validate -input PATH
`

var errUsage = errors.New("icctl: invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		log.Fatal().Err(err).Msg("icctl failed")
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "types":
		return runTypes(rest, stdout, stderr)
	case "encode":
		return runEncode(rest, stdin, stdout, stderr)
	case "decode":
		return runDecode(rest, stdin, stdout, stderr)
	case "serve":
		return runServe(rest, stderr)
	case "config":
		return runConfig(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// loadConfig returns the defaults when path is empty and installs the
// configured logger on stderr.
func loadConfig(path string, stderr io.Writer) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	observability.InitLogger("icctl", cfg.LoggingConfig(), stderr)
	return cfg, nil
}
