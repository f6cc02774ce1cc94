// Package sanitize очищает пользовательский ввод от разметки.
package sanitize

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAllTags удаляет HTML-теги вместе с содержимым script и style,
// оставляя только текст.
func StripAllTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	body := doc.Find("body")
	body.Find("script, style").Remove()

	return body.Text()
}

// ContentHTML оставляет разметку записи, но удаляет активное содержимое:
// script, style, iframe и им подобные элементы, обработчики on* и ссылки
// со схемами javascript:, vbscript: и data:.
func ContentHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return StripAllTags(s)
	}
	body := doc.Find("body")
	body.Find("script, style, iframe, frame, frameset, object, embed, applet, base, meta, link, form").Remove()

	body.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, n := range sel.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				key := strings.ToLower(a.Key)
				if strings.HasPrefix(key, "on") || key == "style" || (urlAttrs[key] && unsafeURL(a.Val)) {
					continue
				}
				kept = append(kept, a)
			}
			n.Attr = kept
		}
	})

	out, err := body.Html()
	if err != nil {
		return StripAllTags(s)
	}
	return out
}

var urlAttrs = map[string]bool{
	"href": true, "src": true, "action": true, "formaction": true,
	"xlink:href": true, "poster": true, "background": true,
}

// unsafeURL сравнивает схему без учёта регистра и управляющих символов,
// которые браузеры отбрасывают.
func unsafeURL(v string) bool {
	v = strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v))
	for _, scheme := range []string{"javascript:", "vbscript:", "data:"} {
		if strings.HasPrefix(v, scheme) {
			return true
		}
	}
	return false
}

// TextField приводит строку к безопасному однострочному тексту: без тегов,
// без переводов строк и табуляций, с одиночными пробелами и без пробелов по краям.
func TextField(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = StripAllTags(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Truncate обрезает строку до max рун. max <= 0 — без ограничения.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// TrimWords возвращает первые n слов текста без разметки. Если текст длиннее,
// к результату добавляется more.
func TrimWords(s string, n int, more string) string {
	words := strings.Fields(StripAllTags(s))
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}

// Slug строит адресную часть термина: нижний регистр, латиница без
// диакритики, цифры и дефисы между словами.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, StripAllTags(s))
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
