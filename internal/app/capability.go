package app

import "strings"

// CapabilityKind classifies what a model produces.
type CapabilityKind string

const (
	KindText  CapabilityKind = "text"
	KindImage CapabilityKind = "image"
	KindAudio CapabilityKind = "audio"
	KindVideo CapabilityKind = "video"
)

// CapabilityTool names an optional backend tool the request should carry.
type CapabilityTool string

const (
	ToolNone   CapabilityTool = ""
	ToolSearch CapabilityTool = "search"
	ToolMaps   CapabilityTool = "maps"
)

// InstructionPolicy selects which system-instruction template applies
// when the user has not supplied one (and, for translator/stem, even
// when they have).
type InstructionPolicy string

const (
	InstructionDefault   InstructionPolicy = "default"
	InstructionCreatore  InstructionPolicy = "creatore"
	InstructionNano      InstructionPolicy = "nano"
	InstructionTranslate InstructionPolicy = "translate"
	InstructionSTEM      InstructionPolicy = "stem"
)

// Capability is the resolved, backend-facing description of a
// human-facing model id. Produced once by ResolveModel and passed by
// value through the request pipeline so identifier substring checks do
// not leak past this file.
type Capability struct {
	Kind           CapabilityKind
	BackendModel   string
	ThinkingBudget int32
	Tool           CapabilityTool
	Instruction    InstructionPolicy
}

// ModelInfo is a catalog entry shown in the model picker.
type ModelInfo struct {
	ID          string
	Description string
}

// Catalog mirrors the product's model lineup: the Hynix core series,
// the specialized assistants, the Nano/Creatore domain engines, and the
// media generators.
var Catalog = []ModelInfo{
	{ID: "Hynix 1.0 Mini", Description: "Efficient and fast for simple tasks."},
	{ID: "Hynix 1.0 Flash", Description: "Balanced speed and reasoning."},
	{ID: "Hynix 1.0 Pro", Description: "Advanced reasoning for complex problems."},
	{ID: "Hynix 1.3 Flash", Description: "The fastest high-intelligence model."},
	{ID: "Hynix 1.3 Pro", Description: "Peak performance and speed."},

	{ID: "Hynix Research", Description: "Deep research with real-time web grounding."},
	{ID: "Hynix Reasoner", Description: "Maximum thinking power for complex logic."},
	{ID: "Hynix Travel", Description: "Location-aware travel planning."},
	{ID: "Hynix Polyglot", Description: "Universal translator for 100+ languages."},
	{ID: "Hynix Quantum", Description: "Advanced STEM and Math specialist."},

	{ID: "Nano 1.0", Description: "Adaptive learning AI for personalized education."},
	{ID: "Creatore 1.0 Pro", Description: "Hyper-intelligent full-stack coding engine."},

	{ID: "Plaza 1.0 Pro", Description: "Studio-quality image generation."},
	{ID: "Vias 1.0 Pro", Description: "Cinematic quality video generation."},
	{ID: "Sonix 1.0 Pro", Description: "High-fidelity audio studio."},
}

const (
	backendFlash      = "gemini-3-flash-preview"
	backendFlashLite  = "gemini-2.5-flash"
	backendImagePro   = "gemini-3-pro-image-preview"
	backendImageFlash = "gemini-2.5-flash-image"
	backendTTS        = "gemini-2.5-flash-preview-tts"
	backendVeo        = "veo-3.1-generate-preview"
	backendVeoFast    = "veo-3.1-fast-generate-preview"
	backendTitle      = "gemini-3-flash-preview"
)

// ResolveModel maps a human-facing model id to its backend capability.
// Unknown ids resolve to a plain text model, matching the product's
// permissive fallback.
func ResolveModel(modelID string) Capability {
	switch {
	case strings.Contains(modelID, "Vias"):
		model := backendVeoFast
		if strings.Contains(modelID, "Pro") {
			model = backendVeo
		}
		return Capability{Kind: KindVideo, BackendModel: model}

	case strings.Contains(modelID, "Plaza"), strings.Contains(modelID, "Imaja"):
		model := backendImageFlash
		if strings.Contains(modelID, "Pro") {
			model = backendImagePro
		}
		return Capability{Kind: KindImage, BackendModel: model}

	case strings.Contains(modelID, "Sonix"):
		return Capability{Kind: KindAudio, BackendModel: backendTTS}

	case strings.Contains(modelID, "Research"):
		return Capability{Kind: KindText, BackendModel: backendFlash, Tool: ToolSearch, Instruction: InstructionDefault}
	case strings.Contains(modelID, "Travel"):
		return Capability{Kind: KindText, BackendModel: backendFlashLite, Tool: ToolMaps, Instruction: InstructionDefault}
	case strings.Contains(modelID, "Reasoner"):
		return Capability{Kind: KindText, BackendModel: backendFlash, ThinkingBudget: 24000, Instruction: InstructionDefault}
	case strings.Contains(modelID, "Polyglot"):
		return Capability{Kind: KindText, BackendModel: backendFlash, Instruction: InstructionTranslate}
	case strings.Contains(modelID, "Quantum"):
		return Capability{Kind: KindText, BackendModel: backendFlash, ThinkingBudget: 16000, Instruction: InstructionSTEM}

	case strings.Contains(modelID, "Creatore"):
		budget := int32(24000)
		if strings.Contains(modelID, "Mini") {
			budget = 0
		} else if strings.Contains(modelID, "Flash") {
			budget = 16000
		}
		return Capability{Kind: KindText, BackendModel: backendFlash, ThinkingBudget: budget, Instruction: InstructionCreatore}

	case strings.Contains(modelID, "Nano"):
		return Capability{Kind: KindText, BackendModel: backendFlash, Instruction: InstructionNano}
	}

	return Capability{Kind: KindText, BackendModel: backendFlash, Instruction: InstructionDefault}
}

// AppMode partitions the catalog into the three product surfaces.
type AppMode string

const (
	ModeHynix    AppMode = "hynix"
	ModeNano     AppMode = "nano"
	ModeCreatore AppMode = "creatore"
)

func IsNanoModel(id string) bool     { return strings.Contains(id, "Nano") }
func IsCreatoreModel(id string) bool { return strings.Contains(id, "Creatore") }

// IsGenerationModel reports whether the id belongs to a media
// generation model (image, audio, or video).
func IsGenerationModel(id string) bool {
	k := ResolveModel(id).Kind
	return k == KindImage || k == KindAudio || k == KindVideo
}

// ModeForModel returns the surface a model belongs to.
func ModeForModel(id string) AppMode {
	switch {
	case IsNanoModel(id):
		return ModeNano
	case IsCreatoreModel(id):
		return ModeCreatore
	default:
		return ModeHynix
	}
}

// DefaultModelForMode returns the model a fresh session in the given
// mode starts with.
func DefaultModelForMode(mode AppMode) string {
	switch mode {
	case ModeNano:
		return "Nano 1.0"
	case ModeCreatore:
		return "Creatore 1.0 Pro"
	default:
		return "Hynix 1.3 Pro"
	}
}

// ModelsForMode filters the catalog for the model picker: Nano and
// Creatore surfaces show only their own engines, the Hynix surface
// shows everything else including the media generators.
func ModelsForMode(mode AppMode) []ModelInfo {
	out := make([]ModelInfo, 0, len(Catalog))
	for _, m := range Catalog {
		switch mode {
		case ModeNano:
			if IsNanoModel(m.ID) {
				out = append(out, m)
			}
		case ModeCreatore:
			if IsCreatoreModel(m.ID) {
				out = append(out, m)
			}
		default:
			if !IsNanoModel(m.ID) && !IsCreatoreModel(m.ID) {
				out = append(out, m)
			}
		}
	}
	return out
}
