package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/document"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/infrastructure/external/openai"
)

// noHashes treats every image as new
type noHashes struct{}

func (noHashes) ListImageHashes(context.Context, string) ([]string, error) { return nil, nil }

func main() {
	kind := flag.String("kind", entity.ImageKindBill, "image kind: odometer or hotel_bill")
	file := flag.String("file", "", "path to the photo or PDF")
	model := flag.String("model", "gpt-4o", "vision model")
	prompts := flag.String("prompts", "", "optional prompts YAML file")
	previous := flag.String("previous", "0", "previous odometer reading")
	distance := flag.String("distance", "0", "claimed distance in km")
	amount := flag.String("amount", "0", "claimed bill amount")
	maxAmount := flag.String("max-amount", "10000", "largest plausible bill amount")
	timeout := flag.Duration("timeout", 60*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "verbose output")
	flag.Parse()

	_ = gotenv.Load()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: check-image --file bill.jpg [--kind hotel_bill|odometer] [--amount 450]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *file, err)
		os.Exit(1)
	}
	img := ai.Image{Data: data, MIMEType: http.DetectContentType(data)}

	var analyzer ai.ImageAnalyzer = ai.NewCleanAnalyzer()
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg, err := openai.LoadPrompts(*prompts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load prompts: %v\n", err)
			os.Exit(1)
		}
		analyzer = openai.NewImageAnalyzer(key, os.Getenv("OPENAI_BASE_URL"), *model, cfg, logger)
	} else {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY not set, using the offline analyzer")
	}

	scorer := ai.NewScorer(ai.NewConfidenceRouter(ai.DefaultConfidenceThreshold()), clock.NewSystem(time.UTC))
	validator := ai.NewValidator(analyzer, scorer, noHashes{}, document.NewPDFRasterizer(85, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var verdict *entity.ImageVerdict
	switch *kind {
	case entity.ImageKindOdometer:
		verdict, err = validator.ValidateOdometer(ctx, ai.OdometerImage{
			UserID:          "cli",
			Image:           img,
			PreviousReading: mustDecimal("previous", *previous),
			ClaimedDistance: mustDecimal("distance", *distance),
		})
	case entity.ImageKindBill:
		verdict, err = validator.ValidateBill(ctx, ai.BillImage{
			UserID:        "cli",
			Image:         img,
			ClaimedAmount: mustDecimal("amount", *amount),
			MaxAmount:     mustDecimal("max-amount", *maxAmount),
		})
	default:
		fmt.Fprintf(os.Stderr, "Unknown kind %q\n", *kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(out))
	if !verdict.Valid {
		os.Exit(2)
	}
}

func mustDecimal(name, value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --%s %q: %v\n", name, value, err)
		os.Exit(1)
	}
	return d
}
