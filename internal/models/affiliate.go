package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateNetwork identifies the program a link belongs to.
type AffiliateNetwork string

const (
	NetworkClickbank   AffiliateNetwork = "CLICKBANK"
	NetworkAmazon      AffiliateNetwork = "AMAZON"
	NetworkShareASale  AffiliateNetwork = "SHAREASALE"
	NetworkCJAffiliate AffiliateNetwork = "CJ_AFFILIATE"
	NetworkImpact      AffiliateNetwork = "IMPACT"
	NetworkOther       AffiliateNetwork = "OTHER"
)

// ParseAffiliateNetwork validates a network name; empty means OTHER.
func ParseAffiliateNetwork(s string) (AffiliateNetwork, error) {
	if s == "" {
		return NetworkOther, nil
	}
	switch n := AffiliateNetwork(s); n {
	case NetworkClickbank, NetworkAmazon, NetworkShareASale, NetworkCJAffiliate, NetworkImpact, NetworkOther:
		return n, nil
	default:
		return "", fmt.Errorf("invalid network %q", s)
	}
}

// AffiliateLink is a tracked outbound product link.
type AffiliateLink struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	URL           string              `json:"url"`
	ShortCode     string              `json:"shortCode"`
	Network       AffiliateNetwork    `json:"network"`
	ProductID     *string             `json:"productId"`
	Commission    decimal.NullDecimal `json:"commission"`
	Description   *string             `json:"description"`
	ImageURL      *string             `json:"imageUrl"`
	CallToAction  string              `json:"callToAction"`
	ShowInSidebar bool                `json:"showInSidebar"`
	SidebarOrder  int                 `json:"sidebarOrder"`
	IsActive      bool                `json:"isActive"`
	ClickCount    int                 `json:"clickCount"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// AffiliateQuery filters affiliate listings.
type AffiliateQuery struct {
	ActiveOnly  bool
	SidebarOnly bool
}

// NewsletterSubscriber is an email list member.
type NewsletterSubscriber struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FirstName      *string    `json:"firstName"`
	Source         string     `json:"source"`
	IsActive       bool       `json:"isActive"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt"`
}
