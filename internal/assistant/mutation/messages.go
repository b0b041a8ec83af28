package mutation

import (
	"fmt"

	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/assistant/pending"
)

const (
	msgMissingProduct = "Which product do you mean? Tell me the product name and I'll take care of it."
	msgUnsupported    = "I can only change your cart or wishlist."
	msgNothingPending = "There is nothing waiting for your confirmation."
	msgExpired        = "That request expired. Please ask me again."
	msgCommitFailed   = "Sorry, something went wrong and nothing was changed. Please try again."
	msgNothingToAbort = "Okay. There was nothing to cancel."
	consentSuffix     = " Reply yes to confirm or no to cancel."
)

func msgNotFound(term string) string {
	return fmt.Sprintf("I couldn't find a product called %q.", term)
}

func msgOutOfStock(name string) string {
	return fmt.Sprintf("Sorry, %s is out of stock right now.", name)
}

func msgInsufficientStock(name string, stock int) string {
	return fmt.Sprintf("Sorry, only %d of %s left in stock.", stock, name)
}

func msgAlreadyWishlisted(name string) string {
	return fmt.Sprintf("%s is already in your wishlist.", name)
}

func msgNotWishlisted(name string) string {
	return fmt.Sprintf("%s isn't in your wishlist.", name)
}

func msgNotInCart(name string) string {
	return fmt.Sprintf("%s isn't in your cart.", name)
}

func proposalMessage(a pending.Action) string {
	t := a.Target
	switch a.Type {
	case intent.AddToCart:
		return fmt.Sprintf("Add %d x %s ($%.2f each) to your cart?", t.Quantity, t.ProductName, t.Price) + consentSuffix
	case intent.RemoveFromCart:
		return fmt.Sprintf("Remove %s from your cart?", t.ProductName) + consentSuffix
	case intent.AddToWishlist:
		return fmt.Sprintf("Add %s ($%.2f) to your wishlist?", t.ProductName, t.Price) + consentSuffix
	case intent.RemoveFromWishlist:
		return fmt.Sprintf("Remove %s from your wishlist?", t.ProductName) + consentSuffix
	}
	return ""
}

func committedMessage(a pending.Action, cartQty int) string {
	t := a.Target
	switch a.Type {
	case intent.AddToCart:
		return fmt.Sprintf("Added %s to your cart. You now have %d in your cart.", t.ProductName, cartQty)
	case intent.RemoveFromCart:
		return fmt.Sprintf("Removed %s from your cart.", t.ProductName)
	case intent.AddToWishlist:
		return fmt.Sprintf("Added %s to your wishlist.", t.ProductName)
	case intent.RemoveFromWishlist:
		return fmt.Sprintf("Removed %s from your wishlist.", t.ProductName)
	}
	return ""
}

func discardedMessage(a pending.Action) string {
	t := a.Target
	switch a.Type {
	case intent.AddToCart:
		return fmt.Sprintf("Okay, I won't add %s to your cart.", t.ProductName)
	case intent.RemoveFromCart:
		return fmt.Sprintf("Okay, %s stays in your cart.", t.ProductName)
	case intent.AddToWishlist:
		return fmt.Sprintf("Okay, I won't add %s to your wishlist.", t.ProductName)
	case intent.RemoveFromWishlist:
		return fmt.Sprintf("Okay, %s stays in your wishlist.", t.ProductName)
	}
	return msgNothingToAbort
}
