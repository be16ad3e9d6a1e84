package api

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/lmojica26/womenhealthytips.com/internal/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateURL validates a URL string
func ValidateURL(field, urlStr string) error {
	if urlStr == "" {
		return ValidationError{Field: field, Message: "URL is required"}
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return ValidationError{Field: field, Message: "Invalid URL format"}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return ValidationError{Field: field, Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return ValidationError{Field: field, Message: "URL must have a host"}
	}

	return nil
}

func validateOptionalURL(field string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	return ValidateURL(field, *v)
}

func maxLen(field string, v *string, n int) error {
	if v != nil && utf8.RuneCountInString(*v) > n {
		return ValidationError{Field: field, Message: fmt.Sprintf("Must be at most %d characters", n)}
	}
	return nil
}

func required(field, message string, v *string, create bool) error {
	if v == nil {
		if create {
			return ValidationError{Field: field, Message: message}
		}
		return nil
	}
	if strings.TrimSpace(*v) == "" {
		return ValidationError{Field: field, Message: message}
	}
	return nil
}

func validateStatus(v *string) error {
	if v == nil {
		return nil
	}
	if _, err := models.ParseContentStatus(*v); err != nil {
		return ValidationError{Field: "status", Message: "Status must be DRAFT, PUBLISHED, SCHEDULED or ARCHIVED"}
	}
	return nil
}

func validateMeta(title, description *string) error {
	if err := maxLen("metaTitle", title, 70); err != nil {
		return err
	}
	return maxLen("metaDescription", description, 160)
}

// PostInput is the body of post create and update requests. Nil fields are
// left unchanged on update.
type PostInput struct {
	Title            *string    `json:"title"`
	Slug             *string    `json:"slug"`
	Excerpt          *string    `json:"excerpt"`
	Content          *string    `json:"content"`
	FeaturedImage    *string    `json:"featuredImage"`
	FeaturedImageAlt *string    `json:"featuredImageAlt"`
	Status           *string    `json:"status"`
	PublishedAt      *time.Time `json:"publishedAt"`
	ScheduledAt      *time.Time `json:"scheduledAt"`
	CategoryID       *string    `json:"categoryId"`
	MetaTitle        *string    `json:"metaTitle"`
	MetaDescription  *string    `json:"metaDescription"`
	Keywords         []string   `json:"keywords"`
	IsAIGenerated    *bool      `json:"isAiGenerated"`
	AIModel          *string    `json:"aiModel"`
	AIPrompt         *string    `json:"aiPrompt"`
}

// Validate checks field constraints. create requires title and content.
func (in PostInput) Validate(create bool) error {
	if err := required("title", "Title is required", in.Title, create); err != nil {
		return err
	}
	if err := maxLen("title", in.Title, 200); err != nil {
		return err
	}
	if err := maxLen("slug", in.Slug, 200); err != nil {
		return err
	}
	if err := maxLen("excerpt", in.Excerpt, 500); err != nil {
		return err
	}
	if err := required("content", "Content is required", in.Content, create); err != nil {
		return err
	}
	if err := validateOptionalURL("featuredImage", in.FeaturedImage); err != nil {
		return err
	}
	if err := maxLen("featuredImageAlt", in.FeaturedImageAlt, 200); err != nil {
		return err
	}
	if err := validateStatus(in.Status); err != nil {
		return err
	}
	return validateMeta(in.MetaTitle, in.MetaDescription)
}

// CategoryInput is the body of category create and update requests.
type CategoryInput struct {
	ID              string  `json:"id"`
	Name            *string `json:"name"`
	Slug            *string `json:"slug"`
	Description     *string `json:"description"`
	Color           *string `json:"color"`
	Icon            *string `json:"icon"`
	Order           *int    `json:"order"`
	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`
}

// Validate checks field constraints. create requires a name.
func (in CategoryInput) Validate(create bool) error {
	if err := required("name", "Name is required", in.Name, create); err != nil {
		return err
	}
	if err := maxLen("name", in.Name, 100); err != nil {
		return err
	}
	if err := maxLen("slug", in.Slug, 100); err != nil {
		return err
	}
	if err := maxLen("description", in.Description, 500); err != nil {
		return err
	}
	if in.Color != nil && *in.Color != "" && !hexColor.MatchString(*in.Color) {
		return ValidationError{Field: "color", Message: "Color must be a hex value like #10b981"}
	}
	if in.Order != nil && *in.Order < 0 {
		return ValidationError{Field: "order", Message: "Order cannot be negative"}
	}
	return validateMeta(in.MetaTitle, in.MetaDescription)
}

// AffiliateInput is the body of affiliate create and update requests.
type AffiliateInput struct {
	Name          *string          `json:"name"`
	URL           *string          `json:"url"`
	ShortCode     *string          `json:"shortCode"`
	Network       *string          `json:"network"`
	ProductID     *string          `json:"productId"`
	Commission    *decimal.Decimal `json:"commission"`
	Description   *string          `json:"description"`
	ImageURL      *string          `json:"imageUrl"`
	CallToAction  *string          `json:"callToAction"`
	ShowInSidebar *bool            `json:"showInSidebar"`
	SidebarOrder  *int             `json:"sidebarOrder"`
	IsActive      *bool            `json:"isActive"`
}

var maxCommission = decimal.NewFromInt(100)

// Validate checks field constraints. create requires name and URL.
func (in AffiliateInput) Validate(create bool) error {
	if err := required("name", "Name is required", in.Name, create); err != nil {
		return err
	}
	if err := maxLen("name", in.Name, 200); err != nil {
		return err
	}
	if in.URL != nil || create {
		var u string
		if in.URL != nil {
			u = *in.URL
		}
		if err := ValidateURL("url", u); err != nil {
			return ValidationError{Field: "url", Message: "Valid URL is required"}
		}
	}
	if in.ShortCode != nil {
		if n := utf8.RuneCountInString(*in.ShortCode); n < 1 || n > 50 {
			return ValidationError{Field: "shortCode", Message: "Short code must be 1 to 50 characters"}
		}
	}
	if in.Network != nil {
		if _, err := models.ParseAffiliateNetwork(*in.Network); err != nil {
			return ValidationError{Field: "network", Message: "Invalid network"}
		}
	}
	if in.Commission != nil && (in.Commission.IsNegative() || in.Commission.GreaterThan(maxCommission)) {
		return ValidationError{Field: "commission", Message: "Commission must be between 0 and 100"}
	}
	if err := maxLen("description", in.Description, 500); err != nil {
		return err
	}
	if err := validateOptionalURL("imageUrl", in.ImageURL); err != nil {
		return err
	}
	if err := maxLen("callToAction", in.CallToAction, 100); err != nil {
		return err
	}
	if in.SidebarOrder != nil && *in.SidebarOrder < 0 {
		return ValidationError{Field: "sidebarOrder", Message: "Sidebar order cannot be negative"}
	}
	return nil
}

// VideoInput is the body of video create requests.
type VideoInput struct {
	Title           *string    `json:"title"`
	Slug            *string    `json:"slug"`
	Description     *string    `json:"description"`
	YoutubeID       *string    `json:"youtubeId"`
	YoutubeURL      *string    `json:"youtubeUrl"`
	Thumbnail       *string    `json:"thumbnail"`
	Duration        *string    `json:"duration"`
	Status          *string    `json:"status"`
	PublishedAt     *time.Time `json:"publishedAt"`
	CategoryID      *string    `json:"categoryId"`
	MetaTitle       *string    `json:"metaTitle"`
	MetaDescription *string    `json:"metaDescription"`
	Keywords        []string   `json:"keywords"`
}

// Validate checks field constraints for a new video.
func (in VideoInput) Validate() error {
	if err := required("title", "Title is required", in.Title, true); err != nil {
		return err
	}
	if err := maxLen("title", in.Title, 200); err != nil {
		return err
	}
	if err := maxLen("description", in.Description, 2000); err != nil {
		return err
	}
	if err := required("youtubeId", "YouTube ID is required", in.YoutubeID, true); err != nil {
		return err
	}
	var u string
	if in.YoutubeURL != nil {
		u = *in.YoutubeURL
	}
	if err := ValidateURL("youtubeUrl", u); err != nil {
		return ValidationError{Field: "youtubeUrl", Message: "Valid YouTube URL is required"}
	}
	if err := validateOptionalURL("thumbnail", in.Thumbnail); err != nil {
		return err
	}
	if err := validateStatus(in.Status); err != nil {
		return err
	}
	return validateMeta(in.MetaTitle, in.MetaDescription)
}

// NormalizeEmail validates an address and returns it lowercased.
func NormalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" || !strings.Contains(addr.Address, ".") {
		return "", ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	return strings.ToLower(addr.Address), nil
}
