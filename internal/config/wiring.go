package config

import (
	"fmt"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/detector"
	"github.com/meriley/lingua-nexus/internal/registry"
	"github.com/meriley/lingua-nexus/internal/translator"
)

// BuildRegistrations constructs one backend.ModelBackend per configured
// BackendConfig, wrapping the teacher's translator.TranslationService
// constructors (cmd/common.go's buildServices does the equivalent for the
// CLI's flat service list). det is shared across every backend's
// DetectLanguage capability, matching the teacher's single
// process-wide *detector.Detector.
func BuildRegistrations(backends []BackendConfig, det *detector.Detector) ([]registry.Registration, error) {
	regs := make([]registry.Registration, 0, len(backends))
	for _, bc := range backends {
		svc, err := newService(bc)
		if err != nil {
			return nil, err
		}

		info := core.BackendInfo{
			ID:                 bc.ID,
			SupportedLanguages: bc.SupportedLanguages,
			NativeCodeScheme:   bc.NativeCodeScheme,
			ContextLimitTokens: bc.ContextLimitTokens,
			MemoryClass:        memoryClass(bc.MemoryClass),
			Status:             core.StatusUnloaded,
		}

		var mb backend.ModelBackend
		switch bc.Family {
		case "generative":
			mb = backend.NewGenerativeInstructed(svc, serviceConfig(bc), info, det)
		case "specialized":
			mb = backend.NewSpecializedSeq2Seq(svc, serviceConfig(bc), info, det)
		case "", "unimplemented":
			mb = backend.NewNotImplementedBackend(svc, info)
		default:
			return nil, fmt.Errorf("backend %q: unknown family %q", bc.ID, bc.Family)
		}

		regs = append(regs, registry.Registration{ID: bc.ID, Backend: mb})
	}
	return regs, nil
}

func serviceConfig(bc BackendConfig) translator.ServiceConfig {
	return translator.ServiceConfig{
		Credentials: bc.Credentials,
		APIKey:      bc.APIKey,
		BaseURL:     bc.BaseURL,
		ProjectID:   bc.ProjectID,
	}
}

func memoryClass(s string) core.MemoryClass {
	switch core.MemoryClass(s) {
	case core.MemorySmall, core.MemoryMedium, core.MemoryLarge, core.MemoryXLarge:
		return core.MemoryClass(s)
	default:
		return core.MemoryMedium
	}
}

// newService builds the teacher's translator.TranslationService named by
// bc.Provider, the same provider vocabulary as cmd/common.go's
// buildServices plus the four declared-but-unimplemented stubs.
func newService(bc BackendConfig) (translator.TranslationService, error) {
	switch bc.Provider {
	case "google":
		return translator.NewGoogleService(), nil
	case "mymemory":
		return translator.NewMyMemoryService(bc.Email), nil
	case "ollama":
		return translator.NewOllamaTranslator(bc.BaseURL, bc.Models), nil
	case "openrouter":
		return translator.NewOpenRouterService(bc.APIKey, bc.BaseURL, bc.Models), nil
	case "ibm":
		return translator.NewIBMService(), nil
	case "amazon":
		return translator.NewAmazonService(), nil
	case "systran":
		return translator.NewSystranService(bc.APIKey), nil
	case "doclingo":
		return translator.NewDoclingoService(bc.APIKey), nil
	default:
		return nil, fmt.Errorf("backend %q: unknown provider %q", bc.ID, bc.Provider)
	}
}
