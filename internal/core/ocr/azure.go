package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// AzureRecognizer reads printed text through Azure Computer Vision.
type AzureRecognizer struct {
	client *computervision.BaseClient
	logger *slog.Logger
}

func NewAzureRecognizer(endpoint, apiKey string, logger *slog.Logger) *AzureRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &AzureRecognizer{client: &client, logger: logger}
}

func (a *AzureRecognizer) Method() string { return "image-azure" }

func (a *AzureRecognizer) Recognize(ctx context.Context, path string) (string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	// the SDK closes the body once the request is sent
	result, err := a.client.RecognizePrintedTextInStream(ctx, true, f, computervision.OcrLanguages(computervision.En))
	if err != nil {
		return "", nil, fmt.Errorf("azure ocr: %w", err)
	}
	text := ocrResultText(result)
	a.logger.Debug("ocr.azure.done", "path", path, "chars", len(text))
	return text, nil, nil
}

// ocrResultText flattens regions into one line of text per OCR line.
func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var b strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return b.String()
}
