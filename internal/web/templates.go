package web

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"foosball/internal/back"
	"foosball/internal/util"

	"github.com/russross/blackfriday/v2"
)

func (s *Server) loadTemplates(baseDir string) (map[string]*template.Template, error) {
	layouts, err := filepath.Glob(filepath.Join(baseDir, "templates/layouts/*.html"))
	if err != nil {
		return nil, err
	}

	includes, err := filepath.Glob(filepath.Join(baseDir, "templates/includes/*.html"))
	if err != nil {
		return nil, err
	}

	ret := make(map[string]*template.Template, len(layouts))
	for _, layout := range layouts {
		tpl, err := template.New("").
			Funcs(s.getTemplateFuncMap(baseDir)).
			ParseFiles(append(includes, layout)...)
		if err != nil {
			return nil, err
		}

		key := strings.TrimPrefix(layout, filepath.Join(baseDir, "templates/layouts")+"/")
		ret[key] = tpl
	}

	return ret, nil
}

func (s *Server) getTemplateFuncMap(baseDir string) template.FuncMap {
	return template.FuncMap{
		"t": s.translate,

		"tf": func(locale string, str string, args ...interface{}) string {
			return fmt.Sprintf(s.translate(locale, str), args...)
		},

		"tmd": func(locale, str string) template.HTML {
			return template.HTML(blackfriday.Run( // nolint:gosec
				[]byte(s.translate(locale, str)),
			))
		},

		"roleTag": func(locale string, role back.Role) template.HTML {
			class := "is-info"
			if role == back.RoleDefense {
				class = "is-warning"
			}

			return template.HTML(fmt.Sprintf( // nolint:gosec
				`<span class="tag %s">%s</span>`,
				class, template.HTMLEscapeString(s.translate(locale, string(role))),
			))
		},

		"ranking":        tplRanking,
		"teamRanking":    tplTeamRanking,
		"datetime":       util.Datetime,
		"date":           util.Date,
		"add":            func(a, b int) int { return a + b },
		"args":           func(v ...interface{}) []interface{} { return v },
		"assetURL":       tplAssetURL,
		"assetIntegrity": tplAssetIntegrity(baseDir),
	}
}

func tplRanking(v back.RankingEntry) string {
	return fmt.Sprintf("%.2f (%.2f±%.2f)", v.Rank, v.Mu, 3*v.Sigma)
}

func tplTeamRanking(v back.TeamLeaderboardEntry) string {
	return fmt.Sprintf("%d±%d", int(v.Rating), int(2.0*v.Deviation))
}

func tplAssetURL(name string) string {
	return "/_/" + name
}

func tplAssetIntegrity(baseDir string) func(name string) (string, error) {
	var mu sync.Mutex
	hashCache := map[string]string{}

	return func(name string) (string, error) {
		mu.Lock()
		defer mu.Unlock()

		if hash, ok := hashCache[name]; ok {
			return hash, nil
		}

		f, err := os.Open(filepath.Join(baseDir, "static", name))
		if err != nil {
			return "", err
		}
		defer f.Close() // nolint:gosec

		h := sha512.New()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}

		hashCache[name] = "sha512-" + base64.StdEncoding.EncodeToString(h.Sum(nil))
		return hashCache[name], nil
	}
}
