// Command credconf manages the service's TOML configuration files: it
// generates age keys, writes a commented default config and converts between
// plaintext and age-encrypted form.
package main

import (
	"flag"
	"fmt"
	"os"

	"filippo.io/age"
	"github.com/caasmo/credkeeper/config"
	"github.com/pelletier/go-toml/v2"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [flags]

Commands:
  genkey  -out <file>                       generate an age X25519 identity
  init    -out <file>                       write the default configuration
  encrypt -key <file> -in <file> -out <file>  encrypt a plaintext config
  decrypt -key <file> -in <file>            decrypt and print a config
`, os.Args[0])
	os.Exit(2)
}

func genKey(out string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}
	content := fmt.Sprintf("# public key: %s\n%s\n", identity.Recipient(), identity)
	if err := os.WriteFile(out, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	fmt.Printf("public key: %s\n", identity.Recipient())
	return nil
}

func initConfig(out string) error {
	data, err := toml.Marshal(config.NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func encrypt(keyPath, in, out string) error {
	plaintext, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	// Parse before encrypting so broken configs never reach disk.
	if _, err := config.Load(in); err != nil {
		return err
	}
	return config.EncryptToFile(out, keyPath, plaintext)
}

func decrypt(keyPath, in string) error {
	cfg, err := config.LoadEncrypted(in, keyPath)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "genkey":
		fs := flag.NewFlagSet("genkey", flag.ExitOnError)
		out := fs.String("out", "age-key.txt", "output key file")
		fs.Parse(os.Args[2:])
		err = genKey(*out)
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		out := fs.String("out", "credkeeper.toml", "output config file")
		fs.Parse(os.Args[2:])
		err = initConfig(*out)
	case "encrypt":
		fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
		key := fs.String("key", "", "age identity file")
		in := fs.String("in", "", "plaintext config file")
		out := fs.String("out", "", "encrypted output file")
		fs.Parse(os.Args[2:])
		if *key == "" || *in == "" || *out == "" {
			usage()
		}
		err = encrypt(*key, *in, *out)
	case "decrypt":
		fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
		key := fs.String("key", "", "age identity file")
		in := fs.String("in", "", "encrypted config file")
		fs.Parse(os.Args[2:])
		if *key == "" || *in == "" {
			usage()
		}
		err = decrypt(*key, *in)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
