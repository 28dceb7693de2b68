// Command assess runs the triage pipeline for one claim and prints the
// {"results","summary"} document.
//
//	assess -claim CLM-2024-0917 s3://claims/roof-1.jpg https://example.com/siding.jpg
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/bootstrap"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/config"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	claimID := flag.String("claim", domain.UnknownClaimID, "Claim identifier")
	listFile := flag.String("list", "", "File with one image reference per line (- for stdin)")
	summaryOnly := flag.Bool("summary", false, "Print only the claim summary")
	flag.Parse()

	refs, err := collectRefs(flag.Args(), *listFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// logs go to stderr so stdout stays machine readable
	logger := config.NewLoggerTo(os.Stderr, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, observability.NewMetrics(), logger)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer components.Close()

	assessment, err := components.Service.Assess(ctx, *claimID, refs)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *summaryOnly {
		return enc.Encode(assessment.Summary)
	}
	return enc.Encode(assessment.Document())
}

func collectRefs(args []string, listFile string) ([]domain.ImageReference, error) {
	refs := make([]domain.ImageReference, 0, len(args))
	for _, a := range args {
		refs = append(refs, domain.ImageReference(a))
	}

	if listFile == "" {
		return refs, nil
	}

	var r io.Reader = os.Stdin
	if listFile != "-" {
		f, err := os.Open(listFile)
		if err != nil {
			return nil, fmt.Errorf("open image list: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, domain.ImageReference(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read image list: %w", err)
	}
	return refs, nil
}
