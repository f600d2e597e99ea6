package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "keygen":
		return runKeygen(args[2:])
	case "sign":
		return runSign(args[2:])
	case "op":
		if len(args) >= 3 && args[2] == "build" {
			return runOpBuild(args[3:])
		}
	case "verify":
		return runVerify(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "catectl"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s keygen\n", name)
	fmt.Fprintf(os.Stderr, "  %s sign --digest <hex> --seed-hex <hex>\n", name)
	fmt.Fprintf(os.Stderr, "  %s op build --digest <hex> --pubkey-base64 <b64> --signature-base64 <b64> [--out <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s verify --in <batch.json> --digest <hex> --pubkey-base64 <b64> --signature-base64 <b64>\n", name)
}

func main() {
	os.Exit(run(os.Args))
}
