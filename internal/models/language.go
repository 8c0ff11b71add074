package models

import "strings"

// Language identifies the language a snippet is written in. The known
// constants below form a closed set; any other non-empty value is treated as
// a user-supplied language whose display name is the value itself and whose
// files get a .txt extension.
type Language string

// Known languages.
const (
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangSwift      Language = "swift"
	LangKotlin     Language = "kotlin"
	LangDart       Language = "dart"
	LangHTML       Language = "html"
	LangCSS        Language = "css"
	LangSCSS       Language = "scss"
	LangSQL        Language = "sql"
	LangBash       Language = "bash"
	LangPowerShell Language = "powershell"
	LangYAML       Language = "yaml"
	LangJSON       Language = "json"
	LangXML        Language = "xml"
	LangMarkdown   Language = "markdown"
	LangDockerfile Language = "dockerfile"
	LangTOML       Language = "toml"
	LangINI        Language = "ini"
	LangConfig     Language = "config"
	LangText       Language = "text"
)

type languageInfo struct {
	display   string
	extension string
}

var languages = map[Language]languageInfo{
	LangRust:       {"Rust", "rs"},
	LangJavaScript: {"JavaScript", "js"},
	LangTypeScript: {"TypeScript", "ts"},
	LangPython:     {"Python", "py"},
	LangGo:         {"Go", "go"},
	LangJava:       {"Java", "java"},
	LangC:          {"C", "c"},
	LangCpp:        {"C++", "cpp"},
	LangCSharp:     {"C#", "cs"},
	LangPHP:        {"PHP", "php"},
	LangRuby:       {"Ruby", "rb"},
	LangSwift:      {"Swift", "swift"},
	LangKotlin:     {"Kotlin", "kt"},
	LangDart:       {"Dart", "dart"},
	LangHTML:       {"HTML", "html"},
	LangCSS:        {"CSS", "css"},
	LangSCSS:       {"SCSS", "scss"},
	LangSQL:        {"SQL", "sql"},
	LangBash:       {"Bash", "sh"},
	LangPowerShell: {"PowerShell", "ps1"},
	LangYAML:       {"YAML", "yml"},
	LangJSON:       {"JSON", "json"},
	LangXML:        {"XML", "xml"},
	LangMarkdown:   {"Markdown", "md"},
	LangDockerfile: {"Dockerfile", "dockerfile"},
	LangTOML:       {"TOML", "toml"},
	LangINI:        {"INI", "ini"},
	LangConfig:     {"Config", "conf"},
	LangText:       {"Text", "txt"},
}

var extensions = map[string]Language{
	"rs": LangRust, "js": LangJavaScript, "ts": LangTypeScript,
	"py": LangPython, "go": LangGo, "java": LangJava,
	"c": LangC, "cpp": LangCpp, "cc": LangCpp, "cxx": LangCpp,
	"cs": LangCSharp, "php": LangPHP, "rb": LangRuby,
	"swift": LangSwift, "kt": LangKotlin, "dart": LangDart,
	"html": LangHTML, "htm": LangHTML, "css": LangCSS, "scss": LangSCSS,
	"sql": LangSQL, "sh": LangBash, "ps1": LangPowerShell,
	"yml": LangYAML, "yaml": LangYAML, "json": LangJSON, "xml": LangXML,
	"md": LangMarkdown, "dockerfile": LangDockerfile, "toml": LangTOML,
	"ini": LangINI, "conf": LangConfig, "config": LangConfig, "txt": LangText,
}

// Known reports whether l is one of the closed set of languages.
func (l Language) Known() bool {
	_, ok := languages[l]
	return ok
}

// Extension returns the file extension used for content files of this
// language. Unknown languages fall back to "txt".
func (l Language) Extension() string {
	if info, ok := languages[l]; ok {
		return info.extension
	}
	return "txt"
}

// DisplayName returns the human-readable language name. For unknown languages
// the raw value is returned unchanged.
func (l Language) DisplayName() string {
	if info, ok := languages[l]; ok {
		return info.display
	}
	return string(l)
}

// LanguageFromExtension maps a file extension (without the dot, any case) to
// its language. Unrecognized extensions produce the extension itself as an
// open-ended language value.
func LanguageFromExtension(ext string) Language {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if lang, ok := extensions[ext]; ok {
		return lang
	}
	return Language(ext)
}

// ParseLanguage normalizes a user-typed language name. Known names match
// case-insensitively against both the constant values and the display names;
// anything else is carried through as-is.
func ParseLanguage(s string) Language {
	lowered := Language(strings.ToLower(strings.TrimSpace(s)))
	if lowered.Known() {
		return lowered
	}
	for lang, info := range languages {
		if strings.EqualFold(info.display, s) {
			return lang
		}
	}
	return Language(strings.TrimSpace(s))
}
