package module

import "forgeport/internal/services/importer/domain"

// Ports defines importer module ports exposed via the registry
type Ports struct {
	Importer domain.ImporterPort
}
