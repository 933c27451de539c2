package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/danmuck/otpic/internal/config"
	"github.com/danmuck/otpic/internal/ic"
	"github.com/danmuck/otpic/internal/inspect"
	"github.com/danmuck/otpic/internal/term"
	"github.com/rs/zerolog/log"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func lookupType(name string) (ic.Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: -type is required", errUsage)
	}
	reg := ic.DefaultRegistry()
	if e, ok := reg.LookupName(name); ok {
		return e, nil
	}
	if e, ok := reg.Lookup(name); ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ic.ErrUnknownType, name)
}

func runTypes(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("types", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tDESCRIPTOR")
	for _, e := range ic.DefaultRegistry().Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name(), e.ID(), e.Type())
	}
	return tw.Flush()
}

func runEncode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("encode", stderr)
	typeName := fs.String("type", "", "registered type name or id")
	value := fs.String("json", "", "JSON value; \"-\" reads stdin")
	packet := fs.Bool("packet", false, "write a {packet,4} frame instead of hex")
	configPath := fs.String("config", "", "icctl config path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath, stderr)
	if err != nil {
		return err
	}
	e, err := lookupType(*typeName)
	if err != nil {
		return err
	}

	data := []byte(*value)
	if *value == "-" {
		if data, err = io.ReadAll(stdin); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: -json is required", errUsage)
	}

	out, err := e.EncodeJSON(data)
	if err != nil {
		return err
	}
	log.Debug().Str("type", e.Name()).Int("bytes", len(out)).Msg("encoded")
	if *packet {
		return term.WritePacket(stdout, out, cfg.TermLimits())
	}
	_, err = fmt.Fprintln(stdout, hex.EncodeToString(out))
	return err
}

func runDecode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("decode", stderr)
	typeName := fs.String("type", "", "registered type name or id")
	anyValue := fs.Bool("any", false, "input is a tagged any value")
	packet := fs.Bool("packet", false, "read a {packet,4} frame from stdin instead of hex")
	configPath := fs.String("config", "", "icctl config path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath, stderr)
	if err != nil {
		return err
	}
	limits := cfg.TermLimits()

	var raw []byte
	switch {
	case *packet:
		if raw, err = term.ReadPacket(stdin, limits); err != nil {
			return err
		}
	case fs.NArg() == 1:
		if raw, err = hex.DecodeString(strings.TrimSpace(fs.Arg(0))); err != nil {
			return fmt.Errorf("decode hex: %w", err)
		}
	default:
		return fmt.Errorf("%w: decode takes one HEX argument or -packet", errUsage)
	}

	var out []byte
	if *anyValue {
		out, err = decodeAny(raw, limits)
	} else {
		var e ic.Entry
		if e, err = lookupType(*typeName); err != nil {
			return err
		}
		out, err = e.DecodeJSON(raw, limits)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func decodeAny(raw []byte, limits term.Limits) ([]byte, error) {
	br := bytes.NewReader(raw)
	r := term.NewReaderLimits(br, limits)
	if err := r.ReadVersion(); err != nil {
		return nil, err
	}
	a, err := ic.UnmarshalAny(r)
	if err != nil {
		return nil, err
	}
	if br.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ic.ErrMalformed, br.Len())
	}
	return ic.DefaultRegistry().DescribeAny(a, limits)
}

func runServe(args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	configPath := fs.String("config", "", "icctl config path")
	addr := fs.String("addr", "", "listen address (overrides inspect.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath, stderr)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Inspect.Addr = *addr
	}
	log.Info().Str("path", *configPath).Str("node", cfg.Inspect.Node).Msg("loaded icctl config")
	server := inspect.New(cfg.Inspect.Node, cfg.Inspect.Addr, ic.DefaultRegistry(), cfg.TermLimits(), cfg.Inspect.CorsOrigins)
	server.RequireToken(cfg.Inspect.AuthToken)
	return server.Serve()
}

func runConfig(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("config", stderr)
	output := fs.String("output", "icctl.toml", "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", "icctl.toml", "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *validate {
		if _, err := config.Load(*input); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "validated config at %s\n", *input)
		return nil
	}
	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote config template to %s\n", *output)
	return nil
}
