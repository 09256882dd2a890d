package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"

	"voyago_back_end/internal/models"

	"github.com/skip2/go-qrcode"
	"github.com/wneessen/go-mail"
)

// SendConfirmationEmail envoie la confirmation de commande, avec le reçu
// PDF en pièce jointe si disponible.
func SendConfirmationEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@voyago.app"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("recu_voyago.pdf", bytes.NewReader(pdfAttachment))
	}

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// BookingQR génère un QR de référence de réservation en base64, prêt pour
// un <img src="...">.
func BookingQR(sessionID string) (string, error) {
	png, err := qrcode.Encode("voyago:booking:"+sessionID, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// BookingConfirmationHTML génère le corps HTML de l'e-mail de confirmation
// (et la page du reçu PDF).
func BookingConfirmationHTML(txs []models.Transaction, sessionID, qrBase64 string) string {
	rowsHTML := ""
	for _, tx := range txs {
		rowsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%s</td>
				<td>%s CAD</td>
			</tr>`, tx.Name, tx.Type, tx.Price.StringFixed(2))
	}

	total := models.Money{}
	for _, tx := range txs {
		total = models.NewMoney(total.Add(tx.Price.Decimal))
	}

	qrHTML := ""
	if qrBase64 != "" {
		qrHTML = fmt.Sprintf(`<img src="%s" alt="QR réservation" width="128" height="128"/>`, qrBase64)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<title>Confirmation de réservation</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre réservation Voyago est confirmée ✈️</h2>
		<p>Référence de paiement : <code>%s</code></p>
		<table style="width: 100%%; border-collapse: collapse;" border="1" cellpadding="8">
			<tr><th>Réservation</th><th>Type</th><th>Prix</th></tr>%s
		</table>
		<p style="font-weight: bold;">Total : %s CAD</p>
		%s
		<p style="color: #777; font-size: 12px;">Présentez ce QR à l'enregistrement.</p>
	</div>
</body>
</html>`, sessionID, rowsHTML, total.StringFixed(2), qrHTML)
}
