package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"catetrust/internal/domain"
	"catetrust/internal/infra/edverify"
)

type batchFileOperation struct {
	FacilityID string `json:"facility_id"`
	Data       string `json:"data"`
}

type batchFile struct {
	CurrentIndex int                  `json:"current_index"`
	Operations   []batchFileOperation `json:"operations"`
}

func runOpBuild(args []string) int {
	fs := flag.NewFlagSet("op build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var digestHex string
	var pubkeyB64 string
	var signatureB64 string
	var outPath string
	fs.StringVar(&digestHex, "digest", "", "decision digest hex (32 bytes)")
	fs.StringVar(&pubkeyB64, "pubkey-base64", "", "signer public key base64 (32 bytes)")
	fs.StringVar(&signatureB64, "signature-base64", "", "signature base64 (64 bytes)")
	fs.StringVar(&outPath, "out", "", "output batch path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if digestHex == "" || pubkeyB64 == "" || signatureB64 == "" {
		fmt.Fprintln(os.Stderr, "op build requires --digest, --pubkey-base64 and --signature-base64")
		return 1
	}

	signer, digest, signature, ok := parseTriple(pubkeyB64, digestHex, signatureB64)
	if !ok {
		return 1
	}

	op, err := edverify.BuildOperation(signer, digest, signature)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build operation: %v\n", err)
		return 1
	}

	out := batchFile{
		CurrentIndex: 1,
		Operations: []batchFileOperation{
			{FacilityID: op.FacilityID, Data: base64.StdEncoding.EncodeToString(op.Data)},
			{FacilityID: "risk-publisher/v1"},
		},
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode batch: %v\n", err)
		return 1
	}
	encoded = append(encoded, '\n')
	if outPath == "" {
		os.Stdout.Write(encoded)
		return 0
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write batch: %v\n", err)
		return 1
	}
	return 0
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var inPath string
	var digestHex string
	var pubkeyB64 string
	var signatureB64 string
	fs.StringVar(&inPath, "in", "", "batch JSON path")
	fs.StringVar(&digestHex, "digest", "", "decision digest hex (32 bytes)")
	fs.StringVar(&pubkeyB64, "pubkey-base64", "", "signer public key base64 (32 bytes)")
	fs.StringVar(&signatureB64, "signature-base64", "", "signature base64 (64 bytes)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" || digestHex == "" || pubkeyB64 == "" || signatureB64 == "" {
		fmt.Fprintln(os.Stderr, "verify requires --in, --digest, --pubkey-base64 and --signature-base64")
		return 1
	}

	signer, digest, signature, ok := parseTriple(pubkeyB64, digestHex, signatureB64)
	if !ok {
		return 1
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read batch: %v\n", err)
		return 1
	}
	var file batchFile
	if err := json.Unmarshal(raw, &file); err != nil {
		fmt.Fprintf(os.Stderr, "decode batch: %v\n", err)
		return 1
	}

	ops := make([]domain.RawOperation, 0, len(file.Operations))
	for _, op := range file.Operations {
		data, err := base64.StdEncoding.DecodeString(op.Data)
		if err != nil {
			fmt.Fprintln(os.Stderr, "operation data is not valid base64")
			return 1
		}
		ops = append(ops, domain.RawOperation{FacilityID: op.FacilityID, Data: data})
	}
	batch := &domain.OperationBatch{Operations: ops, Index: file.CurrentIndex}

	if err := edverify.CrossCheck(batch, domain.Ed25519VerifierFacility, signer, digest, signature); err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %s: %v\n", domain.ErrorCode(err), err)
		return 1
	}
	fmt.Println("verification ok")
	return 0
}

func parseTriple(pubkeyB64, digestHex, signatureB64 string) (domain.Identity, domain.Digest, domain.DecisionSignature, bool) {
	var signer domain.Identity
	var digest domain.Digest
	var signature domain.DecisionSignature

	pub, err := base64.StdEncoding.DecodeString(pubkeyB64)
	if err != nil || len(pub) != len(signer) {
		fmt.Fprintln(os.Stderr, "pubkey must be 32 bytes of base64")
		return signer, digest, signature, false
	}
	dig, err := hex.DecodeString(digestHex)
	if err != nil || len(dig) != len(digest) {
		fmt.Fprintln(os.Stderr, "digest must be 32 bytes of hex")
		return signer, digest, signature, false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != len(signature) {
		fmt.Fprintln(os.Stderr, "signature must be 64 bytes of base64")
		return signer, digest, signature, false
	}
	copy(signer[:], pub)
	copy(digest[:], dig)
	copy(signature[:], sig)
	return signer, digest, signature, true
}
