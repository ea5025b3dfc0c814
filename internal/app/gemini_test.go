package app

import "testing"

func TestChatConfigSamplingParameters(t *testing.T) {
	g := &GeminiCompleter{}

	cfg := g.chatConfig(GenerationOptions{Temperature: 0.5, TopP: 0.9, TopK: 40})
	if cfg.Temperature == nil || *cfg.Temperature != 0.5 {
		t.Fatalf("temperature = %v", cfg.Temperature)
	}
	if cfg.TopP == nil || *cfg.TopP != 0.9 {
		t.Fatalf("top-p = %v", cfg.TopP)
	}
	if cfg.TopK == nil || *cfg.TopK != 40 {
		t.Fatalf("top-k = %v", cfg.TopK)
	}

	cfg = g.chatConfig(GenerationOptions{Temperature: 0.5})
	if cfg.TopP != nil || cfg.TopK != nil {
		t.Fatal("unset sampling parameters must stay on backend defaults")
	}
}

func TestChatConfigMapsToolCarriesLocation(t *testing.T) {
	g := &GeminiCompleter{}

	cfg := g.chatConfig(GenerationOptions{
		Capability: Capability{Tool: ToolMaps},
		Location:   LatLng{Lat: 40.4168, Lng: -3.7038},
	})
	if len(cfg.Tools) != 1 || cfg.Tools[0].GoogleMaps == nil {
		t.Fatalf("tools = %+v", cfg.Tools)
	}
	if cfg.ToolConfig == nil || cfg.ToolConfig.RetrievalConfig == nil {
		t.Fatal("maps tool needs a retrieval config")
	}
	ll := cfg.ToolConfig.RetrievalConfig.LatLng
	if ll == nil || ll.Latitude == nil || ll.Longitude == nil {
		t.Fatalf("latlng = %+v", ll)
	}
	if *ll.Latitude != 40.4168 || *ll.Longitude != -3.7038 {
		t.Fatalf("latlng = %v,%v", *ll.Latitude, *ll.Longitude)
	}
}
