package services

import (
	"fmt"
	"strings"

	"secretsanta/internal/models"
)

func joinRequestText(room models.Room, candidateName string) string {
	return fmt.Sprintf("🔔 %s wants to join \"%s\" (%s).", candidateName, room.Name, room.Code)
}

func decisionText(accepted bool, roomName string) string {
	if accepted {
		return fmt.Sprintf("🎉 You have been accepted into \"%s\"! Wait for the admin to start the shuffle.", roomName)
	}
	return fmt.Sprintf("😔 Your request to join \"%s\" was declined.", roomName)
}

func pairingText(room models.Room, receiverName, receiverWishes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎅 The shuffle in \"%s\" is done!\n\n", room.Name)
	fmt.Fprintf(&b, "You are Secret Santa for: %s\n", receiverName)
	fmt.Fprintf(&b, "Their wishes: %s\n\n", receiverWishes)
	fmt.Fprintf(&b, "💰 Budget: %s\n", room.Budget)
	fmt.Fprintf(&b, "📅 Exchange date: %s", room.ExchangeDate)
	return b.String()
}

func shuffleSummaryText(room models.Room, report models.DeliveryReport) string {
	text := fmt.Sprintf("✅ Shuffle in \"%s\" complete. Delivered %d of %d assignments.",
		room.Name, report.Successful, report.Total)
	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, id := range failed {
			names[i] = room.DisplayName(id)
		}
		text += "\nNot delivered to: " + strings.Join(names, ", ")
	}
	return text
}
