package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

func addOutputFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
}

// printOutput prints data in the given format. YAML goes through JSON
// first so both formats share the json field names.
func printOutput(out io.Writer, data interface{}, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case OutputFormatYAML:
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(generic)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// readHexArg returns the bytes of a hex argument, or of stdin when arg is "-".
func readHexArg(arg string) ([]byte, error) {
	if arg == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		arg = string(raw)
	}
	s := strings.TrimPrefix(strings.TrimSpace(arg), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// parseBytes32 accepts a 32-byte address as hex (left padded when shorter,
// so EVM addresses work) or as a base58 Solana key.
func parseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	hexStr := strings.TrimPrefix(s, "0x")
	if b, err := hex.DecodeString(hexStr); err == nil && len(hexStr) > 0 {
		if len(b) > 32 {
			return out, fmt.Errorf("address %q is longer than 32 bytes", s)
		}
		copy(out[32-len(b):], b)
		return out, nil
	}
	b, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("address %q is neither hex nor base58", s)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("base58 address %q decodes to %d bytes", s, len(b))
	}
	copy(out[:], b)
	return out, nil
}
