package parser

import (
	"fmt"
	"strings"

	"workshop-scraper/models"
)

// ValidateItem ensures the engine produced the required fields.
func ValidateItem(item *models.WorkshopItem) error {
	if item == nil {
		return fmt.Errorf("item is nil")
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("item missing name")
	}
	if strings.TrimSpace(item.URL) == "" {
		return fmt.Errorf("item missing url for %s", item.Name)
	}
	if strings.TrimSpace(item.Type) == "" {
		return fmt.Errorf("item missing type for %s", item.Name)
	}
	return nil
}
