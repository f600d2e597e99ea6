package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
)

func runKeygen(args []string) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		return 1
	}
	fmt.Printf("public_key_base64: %s\n", base64.StdEncoding.EncodeToString(pub))
	fmt.Printf("seed_hex: %s\n", hex.EncodeToString(priv.Seed()))
	return 0
}

func runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var digestHex string
	var seedHex string
	fs.StringVar(&digestHex, "digest", "", "decision digest hex (32 bytes)")
	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 private key seed hex (32 bytes)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if digestHex == "" || seedHex == "" {
		fmt.Fprintln(os.Stderr, "sign requires --digest and --seed-hex")
		return 1
	}

	digest, err := hex.DecodeString(digestHex)
	if err != nil || len(digest) != 32 {
		fmt.Fprintln(os.Stderr, "digest must be 32 bytes of hex")
		return 1
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		fmt.Fprintln(os.Stderr, "seed must be 32 bytes of hex")
		return 1
	}

	priv := ed25519.NewKeyFromSeed(seed)
	sig := ed25519.Sign(priv, digest)
	fmt.Printf("signature_base64: %s\n", base64.StdEncoding.EncodeToString(sig))
	return 0
}
