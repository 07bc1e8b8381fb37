package ine_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ptstats/ptine/internal/ine"
)

// ─── Fixtures ─────────────────────────────────────────────────────────────────

const fullCatalogueXML = `<?xml version="1.0" encoding="utf-8"?>
<indicators>
 <indicator id="0011823">
  <varcd>0011823</varcd>
  <title>Unemployment rate</title>
  <theme>Labour market</theme>
  <subtheme>Employment</subtheme>
  <keywords>unemployment, labour</keywords>
  <description>Quarterly unemployment rate</description>
  <source>INE</source>
  <periodicity>Quarterly</periodicity>
  <dates>
   <last_period_available>2023-T4</last_period_available>
   <last_update>2024-02-07</last_update>
  </dates>
  <json>
   <json_dataset>https://www.ine.pt/ine/json_indicador/pindica.jsp?op=2&amp;varcd=0011823</json_dataset>
   <json_metainfo>https://www.ine.pt/ine/json_indicador/pindicaMeta.jsp?varcd=0011823</json_metainfo>
  </json>
 </indicator>
 <indicator id="0008206">
  <varcd>0008206</varcd>
  <titulo>Taxa de inflação</titulo>
  <tema>Preços</tema>
  <subtema>IPC</subtema>
  <descricao>Variação do IPC</descricao>
  <fonte>INE</fonte>
 </indicator>
</indicators>`

func serveCatalogue(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == cataloguePath {
			fmt.Fprint(w, body)
			return
		}
		http.NotFound(w, r)
	}
}

// ─── Parsing ──────────────────────────────────────────────────────────────────

func TestIndicatorsParsesBothElementVariants(t *testing.T) {
	srv := newServer(t, serveCatalogue(fullCatalogueXML))
	client := newClient(srv, ine.Options{})

	inds, _, err := client.Indicators(context.Background())
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if len(inds) != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(inds))
	}

	en := inds[0]
	if en.Code != "0011823" || en.Title != "Unemployment rate" || en.Theme != "Labour market" {
		t.Errorf("english-element entry: %+v", en)
	}
	if en.LastPeriod != "2023-T4" || en.LastUpdate != "2024-02-07" {
		t.Errorf("dates: %+v", en)
	}
	if en.DataURL == "" || en.MetadataURL == "" {
		t.Error("json URLs should be carried through")
	}

	pt := inds[1]
	if pt.Code != "0008206" || pt.Title != "Taxa de inflação" || pt.Theme != "Preços" {
		t.Errorf("portuguese-element entry: %+v", pt)
	}
	if pt.Subtheme != "IPC" || pt.Source != "INE" {
		t.Errorf("portuguese-element entry: %+v", pt)
	}
}

func TestIndicatorsLatin1Encoding(t *testing.T) {
	// The endpoint serves ISO-8859-1 as often as UTF-8. "População" with
	// Latin-1 bytes for ç and ã.
	latin1 := "<?xml version=\"1.0\" encoding=\"iso-8859-1\"?>\n" +
		"<indicators><indicator id=\"1\"><varcd>1</varcd>" +
		"<title>Popula\xe7\xe3o residente</title><theme>Demografia</theme>" +
		"</indicator></indicators>"
	srv := newServer(t, serveCatalogue(latin1))
	client := newClient(srv, ine.Options{})

	inds, _, err := client.Indicators(context.Background())
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if inds[0].Title != "População residente" {
		t.Errorf("Latin-1 title should decode to UTF-8: got %q", inds[0].Title)
	}
}

func TestIndicatorsInvalidXML(t *testing.T) {
	srv := newServer(t, serveCatalogue("<indicators><indicator>"))
	client := newClient(srv, ine.Options{})

	_, _, err := client.Indicators(context.Background())
	var perr *ine.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

// ─── Single lookup ────────────────────────────────────────────────────────────

func TestIndicatorByCode(t *testing.T) {
	var gotOpc, gotVarcd string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotOpc = r.URL.Query().Get("opc")
		gotVarcd = r.URL.Query().Get("varcd")
		fmt.Fprint(w, catalogueXML)
	})
	client := newClient(srv, ine.Options{})

	ind, _, err := client.Indicator(context.Background(), "0011823")
	if err != nil {
		t.Fatalf("Indicator: %v", err)
	}
	if ind.Code != "0011823" {
		t.Errorf("Code: got %q", ind.Code)
	}
	if gotOpc != "1" || gotVarcd != "0011823" {
		t.Errorf("query params: opc=%q varcd=%q", gotOpc, gotVarcd)
	}
}

func TestIndicatorNotFound(t *testing.T) {
	empty := `<?xml version="1.0" encoding="utf-8"?><indicators></indicators>`
	srv := newServer(t, serveCatalogue(empty))
	client := newClient(srv, ine.Options{})

	_, _, err := client.Indicator(context.Background(), "9999999")
	var nf *ine.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
	if nf.Kind != "indicator" || nf.Code != "9999999" {
		t.Errorf("NotFoundError fields: %+v", nf)
	}
}

func TestMainIndicatorsUsesOpc3(t *testing.T) {
	var gotOpc string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotOpc = r.URL.Query().Get("opc")
		fmt.Fprint(w, catalogueXML)
	})
	client := newClient(srv, ine.Options{})

	if _, _, err := client.MainIndicators(context.Background()); err != nil {
		t.Fatalf("MainIndicators: %v", err)
	}
	if gotOpc != "3" {
		t.Errorf("opc: expected 3, got %q", gotOpc)
	}
}

// ─── Search ───────────────────────────────────────────────────────────────────

func TestSearchMatchesTitleKeywordsDescription(t *testing.T) {
	srv := newServer(t, serveCatalogue(fullCatalogueXML))
	client := newClient(srv, ine.Options{})
	ctx := context.Background()

	cases := []struct {
		query string
		want  string
	}{
		{"UNEMPLOYMENT", "0011823"}, // title, case-insensitive
		{"labour", "0011823"},       // keywords
		{"variação", "0008206"},     // description
	}
	for _, tc := range cases {
		got, _, err := client.Search(ctx, tc.query, ine.SearchOptions{})
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.query, err)
		}
		if len(got) != 1 || got[0].Code != tc.want {
			t.Errorf("Search(%q): expected [%s], got %+v", tc.query, tc.want, got)
		}
	}
}

func TestSearchThemeFilter(t *testing.T) {
	srv := newServer(t, serveCatalogue(fullCatalogueXML))
	client := newClient(srv, ine.Options{})

	got, _, err := client.Search(context.Background(), "", ine.SearchOptions{Theme: "preços"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Code != "0008206" {
		t.Errorf("theme filter: got %+v", got)
	}
}

func TestSearchLimit(t *testing.T) {
	srv := newServer(t, serveCatalogue(fullCatalogueXML))
	client := newClient(srv, ine.Options{})

	got, _, err := client.Search(context.Background(), "", ine.SearchOptions{Limit: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit: expected 1 result, got %d", len(got))
	}
}

func TestSearchNoMatches(t *testing.T) {
	srv := newServer(t, serveCatalogue(fullCatalogueXML))
	client := newClient(srv, ine.Options{})

	got, _, err := client.Search(context.Background(), "zzz-no-such-thing", ine.SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}
