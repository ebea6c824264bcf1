package ocr_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"agrovet/internal/ocr"
)

// Example demonstrates recognizing a scanned report page with Cloud Vision.
func Example() {
	// Load .env file (using godotenv in main)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Credentials are read from the environment
	service, err := ocr.NewVisionOCRService(ctx, ocr.DefaultOptions())
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer service.Close()

	image, err := os.Open("relatorio_reprodutivo.jpg")
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer image.Close()

	result, err := service.ProcessImage(ctx, image)
	if err != nil {
		log.Fatalf("Failed to process image: %v", err)
	}

	fmt.Printf("Extracted text (%d characters):\n%s\n", len(result.Text), result.Text)
}

// Example_pdf demonstrates processing a multi-page PDF with an engine that
// reads PDFs natively.
func Example_pdf() {
	ctx := context.Background()

	service, err := ocr.NewDocumentAIOCRService(ctx, ocr.DocumentAIConfig{
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    "us",
		ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
	})
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer service.Close()

	pdfFile, err := os.Open("relatorio_reprodutivo.pdf")
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer pdfFile.Close()

	result, err := service.ProcessPDFWithMetadata(ctx, pdfFile)
	if err != nil {
		log.Fatalf("Failed to process PDF: %v", err)
	}

	fmt.Printf("OCR Results:\n")
	fmt.Printf("  Pages processed: %d\n", result.PageCount)
	fmt.Printf("  Confidence: %.2f%%\n", result.Confidence*100)
	fmt.Printf("  Languages: %s\n", strings.Join(result.LanguageCodes, ", "))
	fmt.Printf("  Processing time: %v\n", result.ProcessingDuration)
	fmt.Printf("\nExtracted text:\n%s\n", result.Text)
}
