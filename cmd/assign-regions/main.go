// assign-regions annotates a park catalog GeoJSON with region
// properties from the curated table, writing a .bak backup first.
// One-off maintenance tool for repairing the static catalog file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var regionTable = []struct {
	region string
	parks  []string
}{
	{"noa", []string{"pn baritu", "el rey", "los cardones", "aconquija", "calilegua", "copo"}},
	{"nea", []string{"iguazu", "chaco", "el impenetrable", "laguna el palmar", "ibera", "mburucuya", "rio pilcomayo"}},
	{"centro", []string{"quebrada del condorito", "traslasierra", "ansenuza", "el leoncito", "san guillermo", "sierra de las quijadas", "talampaya", "islas santa de fe", "pre-delta", "el palmar", "ciervo de los pantanos", "campos del tuyu"}},
	{"patagonia", []string{"lanin", "laguna blanca", "los arrayanes", "nahuel huapi", "islote lobos", "lihue calel", "los alerces", "lago puelo"}},
	{"patagonia-austral", []string{"los glaciares", "perito moreno", "patagonia", "bosques petrificados del jaramillo", "monte leon", "tierra del fuego"}},
	{"mar-argentino", nil},
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	leadNucleoRe = regexp.MustCompile(`^nucleo\s+`)
	leadPNRe     = regexp.MustCompile(`^pn\s+`)
	parenRe      = regexp.MustCompile(`\([^)]*\)`)
	roleWordsRe  = regexp.MustCompile(`\b(parque nacional marino|parque nacional|reserva nacional|area protegida|sector|nucleo|provincia)\b`)
	separatorRe  = regexp.MustCompile(`[/|]`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func normalize(raw string) string {
	s := strings.ToLower(raw)
	s = htmlTagRe.ReplaceAllString(s, " ")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = leadNucleoRe.ReplaceAllString(s, "")
	s = leadPNRe.ReplaceAllString(s, "")
	s = parenRe.ReplaceAllString(s, "")
	s = roleWordsRe.ReplaceAllString(s, " ")
	s = separatorRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: assign-regions <catalog-geojson>")
		os.Exit(1)
	}
	path := os.Args[1]

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading catalog: %v\n", err)
		os.Exit(1)
	}

	var catalog struct {
		Type     string `json:"type"`
		Features []struct {
			Type       string                 `json:"type"`
			Properties map[string]interface{} `json:"properties"`
			Geometry   json.RawMessage        `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		fmt.Printf("Error parsing catalog: %v\n", err)
		os.Exit(1)
	}

	// invert the table for exact-key lookup
	lookup := map[string]string{}
	for _, group := range regionTable {
		for _, park := range group.parks {
			lookup[normalize(park)] = group.region
		}
	}

	if err := os.WriteFile(path+".bak", raw, 0644); err != nil {
		fmt.Printf("Error writing backup: %v\n", err)
		os.Exit(1)
	}

	changed := 0
	for i := range catalog.Features {
		props := catalog.Features[i].Properties
		if props == nil {
			continue
		}

		name := ""
		for _, key := range []string{"name", "ROTULO", "Name", "nombre"} {
			if v, ok := props[key].(string); ok && v != "" {
				name = v
				break
			}
		}

		region, ok := lookup[normalize(name)]
		if !ok {
			continue
		}
		if props["region"] == region {
			continue
		}

		props["region"] = region
		// keep an existing category, only default it to the region
		if _, ok := props["category"]; !ok {
			props["category"] = region
		}
		changed++
	}

	if changed == 0 {
		fmt.Println("No features modified (no matches found).")
	} else {
		fmt.Printf("Modified features: %d\n", changed)
	}

	out, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling catalog: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		fmt.Printf("Error writing catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote updated catalog, backup at %s.bak\n", path)
}
