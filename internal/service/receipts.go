package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/minio/minio-go/v7"
)

// ReceiptService rend le reçu de réservation en PDF (Chrome headless) et
// l'archive dans MinIO, un objet par session de paiement.
type ReceiptService struct {
	client *minio.Client
	bucket string
}

// NewReceiptService retourne nil si MinIO n'est pas configuré.
func NewReceiptService(client *minio.Client, bucket string) *ReceiptService {
	if client == nil {
		return nil
	}
	return &ReceiptService{client: client, bucket: bucket}
}

// GenerateAndStore rend le HTML en PDF, l'upload, et retourne les octets du
// PDF pour la pièce jointe e-mail.
func (r *ReceiptService) GenerateAndStore(ctx context.Context, email, sessionID, html string) ([]byte, error) {
	pdf, err := renderPDF(ctx, html)
	if err != nil {
		return nil, err
	}

	key := objectKey(email, sessionID)
	_, err = r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return nil, fmt.Errorf("upload reçu MinIO: %w", err)
	}

	log.Printf("🧾 Reçu archivé : %s/%s", r.bucket, key)
	return pdf, nil
}

// SignedURL génère une URL de téléchargement signée à durée limitée.
func (r *ReceiptService) SignedURL(ctx context.Context, email, sessionID string, duration time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := r.client.PresignedGetObject(ctx, r.bucket, objectKey(email, sessionID), duration, reqParams)
	if err != nil {
		return "", fmt.Errorf("URL signée: %w", err)
	}
	return presigned.String(), nil
}

func objectKey(email, sessionID string) string {
	return fmt.Sprintf("receipts/%s/%s.pdf", email, sessionID)
}

// renderPDF charge le HTML dans un Chrome headless et l'imprime en PDF.
func renderPDF(parent context.Context, html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("impression PDF: %w", err)
	}
	return pdfBuf, nil
}
