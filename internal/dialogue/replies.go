package dialogue

import (
	"fmt"
	"strings"

	"github.com/A-zanke/pharmachat/internal/catalog"
	"github.com/A-zanke/pharmachat/internal/session"
)

const (
	replyAskWizardName    = "Please provide medicine name:"
	replyAskPackets       = "Enter total number of packets:"
	replyAskTablets       = "Enter number of tablets per packet:"
	replyAskPrice         = "Enter price per packet:"
	replyRestockDeclined  = "Okay, no stock added."
	replyCheckoutDeclined = "Okay, I've cancelled the order."
	replyNextMedicine     = "Sure — which medicine would you like to add next?"
	replyStartOver        = "Let's start over. How can I help you?"
	replyOrderFailed      = "Sorry, placing the order failed. Your cart is untouched — type \"proceed\" to try again."
	replyStockFailed      = "Sorry, updating the stock failed. Please re-enter the price per packet to try again."
	replyRemoveFailed     = "Sorry, removing the medicine failed. Please try again."

	replyAskQuantityRetry = "Please enter the number of tablets as a whole number, e.g. 10."
	replyPacketsInvalid   = "Packets must be a whole number greater than zero. " + replyAskPackets
	replyTabletsInvalid   = "Tablets per packet must be a whole number greater than zero. " + replyAskTablets
	replyPriceInvalid     = "Price must be a number, zero or more. " + replyAskPrice
	replyYesNoRetry       = "Please answer Yes or No."
	replyProceedRetry     = "Type \"proceed\" to place the order, or \"cancel\" to discard it."
)

func replyNotFound(name string) string {
	return fmt.Sprintf("I couldn't find %q in the inventory. Could you check the spelling?", name)
}

func replyStockReport(item *catalog.Item) string {
	report := fmt.Sprintf("%s is in stock: %d packets × %d tablets = %d tablets. Price per tablet: ₹%.2f.",
		item.Name, item.Packets, item.TabletsPerPacket, item.TotalTablets(), item.PricePerTablet)
	if item.LowStock() {
		report += " Note: stock is running low."
	}
	return report
}

func replyOutOfStock(item *catalog.Item) string {
	return fmt.Sprintf("%s is out of stock. Would you like to add stock? (Yes/No)", item.Name)
}

func replyAskQuantity(name string) string {
	return fmt.Sprintf("How many tablets of %s do you need?", name)
}

func replyRemoved(name string) string {
	return fmt.Sprintf("%s has been removed from the inventory.", name)
}

func replyStockAdded(name string, packets, tabletsPerPacket int, pricePerPacket float64) string {
	total := packets * tabletsPerPacket
	perTablet := pricePerPacket / float64(tabletsPerPacket)
	return fmt.Sprintf("Added %d packets of %s (%d tablets). Price per tablet: ₹%.2f.",
		packets, name, total, perTablet)
}

func cartSummary(cart []session.CartLine) string {
	var b strings.Builder
	b.WriteString("Your order so far:\n")
	for i, line := range cart {
		fmt.Fprintf(&b, "%d. %s — %d tablets\n", i+1, line.Name, line.Quantity)
	}
	return b.String()
}

func replyCartAdded(cart []session.CartLine) string {
	return cartSummary(cart) + "Would you like to add more medicines? (Y/N)"
}

func replyCheckoutPrompt(cart []session.CartLine) string {
	return cartSummary(cart) + "Type \"proceed\" to place the order."
}

func replyOrderPlaced(orderID string) string {
	if orderID == "" {
		return "Your order has been placed."
	}
	return fmt.Sprintf("Your order has been placed. Order ID: %s", orderID)
}
