package main

import (
	"fmt"
	"os"

	"contenthub/cmd/internal/passphrase"
	"contenthub/crypto"
)

const passphraseEnv = "HUB_KEYSTORE_PASSPHRASE"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "keygen":
		err = keygen(os.Args[2:])
	case "addr":
		err = addr(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hubctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: hubctl keygen <keystore-path> | hubctl addr <keystore-path>")
}

func keygen(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("keygen requires a keystore path")
	}
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing keystore %s", path)
	}
	secret, err := passphrase.NewSource(passphraseEnv).WithConfirmation().Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(path, key, secret); err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}

func addr(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("addr requires a keystore path")
	}
	secret, err := passphrase.NewSource(passphraseEnv).Get()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(args[0], secret)
	if err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}
