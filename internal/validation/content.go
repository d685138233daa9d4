package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength        = 120
	MaxDescriptionLength = 2000
	MaxTags              = 10
	MaxTagLength         = 30
	MaxCommentLength     = 1000
	MaxPostLength        = 5000
	MaxPostEntries       = 20
	MaxPostEntryLength   = 80
	MaxPostImages        = 10
	MaxImageURLLength    = 500
)

// ValidateName checks a circle or list name.
func ValidateName(field, name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return fmt.Errorf("%s is required", field)
	}
	if n > MaxNameLength {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxNameLength)
	}
	return nil
}

// ValidateDescription checks free-text descriptions.
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidatePriceRange accepts "" or one to four dollar signs.
func ValidatePriceRange(price string) error {
	if price == "" {
		return nil
	}
	if len(price) > 4 || strings.Trim(price, "$") != "" {
		return fmt.Errorf("price range must be between $ and $$$$")
	}
	return nil
}

// ValidateRating checks an item rating. Nil means unrated.
func ValidateRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < 1 || *rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

// ValidatePosition checks an item ordering hint.
func ValidatePosition(position *int) error {
	if position != nil && *position < 0 {
		return fmt.Errorf("position must not be negative")
	}
	return nil
}

// ValidateTags checks tag count and length.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("tags must not be empty")
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			return fmt.Errorf("tags must not exceed %d characters", MaxTagLength)
		}
	}
	return nil
}

// ValidateInviteTarget accepts a username or an email address.
func ValidateInviteTarget(target string) error {
	t := strings.TrimSpace(target)
	if t == "" {
		return fmt.Errorf("invite target is required")
	}
	if strings.Contains(t, "@") {
		return ValidateEmail(t)
	}
	return ValidateUsername(t)
}

// ValidateComment checks comment content.
func ValidateComment(content string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	if n == 0 {
		return fmt.Errorf("comment content is required")
	}
	if n > MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// ValidatePostContent checks review text.
func ValidatePostContent(content string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	if n == 0 {
		return fmt.Errorf("content is required")
	}
	if n > MaxPostLength {
		return fmt.Errorf("content must not exceed %d characters", MaxPostLength)
	}
	return nil
}

// ValidateEntries checks short free-text lists such as dishes tried.
func ValidateEntries(field string, entries []string) error {
	if len(entries) > MaxPostEntries {
		return fmt.Errorf("at most %d %s are allowed", MaxPostEntries, field)
	}
	for _, e := range entries {
		n := utf8.RuneCountInString(strings.TrimSpace(e))
		if n == 0 {
			return fmt.Errorf("%s must not be empty", field)
		}
		if n > MaxPostEntryLength {
			return fmt.Errorf("%s must not exceed %d characters", field, MaxPostEntryLength)
		}
	}
	return nil
}

// ValidateImageURLs accepts absolute http(s) URLs and server-relative paths.
func ValidateImageURLs(urls []string) error {
	if len(urls) > MaxPostImages {
		return fmt.Errorf("at most %d images are allowed", MaxPostImages)
	}
	for _, u := range urls {
		if len(u) > MaxImageURLLength {
			return fmt.Errorf("image URLs must not exceed %d characters", MaxImageURLLength)
		}
		if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "/") {
			return fmt.Errorf("image URLs must be http(s) URLs or absolute paths")
		}
	}
	return nil
}
