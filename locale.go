package deckforge

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Lexicon bundles every locale-specific keyword family the analytical
// checks depend on. Locales are additive data: register a new Lexicon
// and every evaluator picks it up through LexiconFor.
type Lexicon struct {
	Tag language.Tag

	// Narrative flow families.
	Situation    []string
	Complication []string
	Resolution   []string

	// Headline quality families.
	ActionVerbs        []string
	ImplicationMarkers []string

	// Structure and actionability families.
	ConclusionMarkers []string
	PriorityKeywords  []string

	// Framework vocabularies for this locale.
	Frameworks []Framework

	// Stopwords excluded from keyword sets.
	Stopwords map[string]struct{}
}

// HasAny reports whether the text contains any keyword of the family.
func (lex *Lexicon) HasAny(text string, family []string) bool {
	return containsAny(strings.ToLower(text), family)
}

var (
	lexiconMu sync.RWMutex
	lexicons  []*Lexicon
	matcher   language.Matcher
)

// RegisterLexicon adds or replaces the lexicon for its language tag.
func RegisterLexicon(lex *Lexicon) {
	lexiconMu.Lock()
	defer lexiconMu.Unlock()
	for i, l := range lexicons {
		if l.Tag == lex.Tag {
			lexicons[i] = lex
			rebuildMatcher()
			return
		}
	}
	lexicons = append(lexicons, lex)
	rebuildMatcher()
}

func rebuildMatcher() {
	tags := make([]language.Tag, len(lexicons))
	for i, l := range lexicons {
		tags[i] = l.Tag
	}
	matcher = language.NewMatcher(tags)
}

// LexiconFor resolves a BCP 47 locale identifier ("en", "ja", "ja-JP")
// to the closest registered lexicon. Unknown or empty locales fall
// back to English.
func LexiconFor(locale string) *Lexicon {
	lexiconMu.RLock()
	defer lexiconMu.RUnlock()
	if locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			_, index, conf := matcher.Match(tag)
			if conf > language.No {
				return lexicons[index]
			}
		}
	}
	for _, l := range lexicons {
		if l.Tag == language.English {
			return l
		}
	}
	return lexicons[0]
}

func stopwordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func init() {
	RegisterLexicon(englishLexicon())
	RegisterLexicon(japaneseLexicon())
}

func englishLexicon() *Lexicon {
	return &Lexicon{
		Tag: language.English,
		Situation: []string{
			"current", "today", "status", "background", "overview",
			"market", "landscape", "as-is", "baseline", "context",
		},
		Complication: []string{
			"however", "challenge", "problem", "risk", "issue",
			"decline", "threat", "gap", "pressure", "shortfall",
			"bottleneck", "but ",
		},
		Resolution: []string{
			"solution", "recommend", "propose", "should", "plan",
			"next steps", "action", "roadmap", "strategy", "initiative",
			"approach", "response",
		},
		ActionVerbs: []string{
			"increase", "reduce", "grow", "expand", "improve",
			"accelerate", "launch", "deliver", "cut", "boost",
			"drive", "achieve", "double", "capture", "win",
			"save", "generate", "unlock", "streamline",
		},
		ImplicationMarkers: []string{
			"enabling", "enables", "allowing", "allows", "driving",
			"leading to", "resulting in", "so that", "which means",
			"unlocking", "positioning", "paving the way",
		},
		ConclusionMarkers: []string{
			"conclusion", "summary", "recommendation", "key takeaway",
			"bottom line", "executive summary", "in short", "verdict",
		},
		PriorityKeywords: []string{
			"priority", "first", "immediately", "critical", "must",
			"urgent", "now", "key", "focus", "top",
		},
		Frameworks: []Framework{
			{
				ID: "3c",
				Categories: []FrameworkCategory{
					{Name: "company", Keywords: []string{"company", "our business", "internal", "capabilities", "own"}},
					{Name: "customer", Keywords: []string{"customer", "client", "consumer", "user", "buyer"}},
					{Name: "competitor", Keywords: []string{"competitor", "competition", "rival", "competitive"}},
				},
			},
			{
				ID: "4p",
				Categories: []FrameworkCategory{
					{Name: "product", Keywords: []string{"product", "offering", "feature", "portfolio"}},
					{Name: "price", Keywords: []string{"price", "pricing", "cost to customer", "discount"}},
					{Name: "place", Keywords: []string{"place", "channel", "distribution", "retail"}},
					{Name: "promotion", Keywords: []string{"promotion", "advertis", "campaign", "marketing"}},
				},
			},
			{
				ID: "swot",
				Categories: []FrameworkCategory{
					{Name: "strengths", Keywords: []string{"strength", "advantage", "asset"}},
					{Name: "weaknesses", Keywords: []string{"weakness", "shortcoming", "deficienc"}},
					{Name: "opportunities", Keywords: []string{"opportunit", "upside", "potential"}},
					{Name: "threats", Keywords: []string{"threat", "risk", "headwind"}},
				},
			},
			{
				ID: "pest",
				Categories: []FrameworkCategory{
					{Name: "political", Keywords: []string{"political", "policy", "regulat", "government"}},
					{Name: "economic", Keywords: []string{"economic", "economy", "inflation", "gdp", "interest rate"}},
					{Name: "social", Keywords: []string{"social", "demographic", "cultural", "lifestyle"}},
					{Name: "technological", Keywords: []string{"technolog", "digital", "innovation", "automation"}},
				},
			},
		},
		Stopwords: stopwordSet(
			"a", "an", "the", "and", "or", "but", "if", "of", "to",
			"in", "on", "for", "with", "as", "at", "by", "from",
			"is", "are", "was", "were", "be", "been", "being",
			"it", "its", "this", "that", "these", "those",
			"we", "our", "you", "your", "they", "their",
			"will", "can", "has", "have", "had", "not", "no",
			"than", "then", "so", "such", "into", "about", "over",
			"after", "before", "between", "through", "during",
			"more", "most", "other", "some", "any", "each",
			"per", "via", "vs", "within", "across", "also",
		),
	}
}

func japaneseLexicon() *Lexicon {
	return &Lexicon{
		Tag: language.Japanese,
		Situation: []string{
			"現状", "背景", "市場", "状況", "概況", "足元", "これまで",
		},
		Complication: []string{
			"課題", "問題", "しかし", "リスク", "懸念", "低下", "悪化",
			"一方で", "障壁",
		},
		Resolution: []string{
			"解決", "施策", "提案", "打ち手", "対策", "方針", "戦略",
			"推奨", "ロードマップ", "今後", "ネクストステップ",
		},
		ActionVerbs: []string{
			"拡大", "削減", "増加", "成長", "改善", "加速", "展開",
			"達成", "強化", "創出", "獲得", "推進", "倍増",
		},
		ImplicationMarkers: []string{
			"により", "につながる", "を実現", "を可能に", "ことで",
			"結果として", "もたらす",
		},
		ConclusionMarkers: []string{
			"結論", "まとめ", "要約", "提言", "推奨", "サマリー", "総括",
		},
		PriorityKeywords: []string{
			"優先", "最優先", "直ちに", "重要", "必須", "まず", "注力",
			"早急",
		},
		Frameworks: []Framework{
			{
				ID: "3c",
				Categories: []FrameworkCategory{
					{Name: "company", Keywords: []string{"自社", "当社", "社内"}},
					{Name: "customer", Keywords: []string{"顧客", "カスタマー", "ユーザー", "消費者"}},
					{Name: "competitor", Keywords: []string{"競合", "他社", "ライバル"}},
				},
			},
			{
				ID: "4p",
				Categories: []FrameworkCategory{
					{Name: "product", Keywords: []string{"製品", "商品", "プロダクト"}},
					{Name: "price", Keywords: []string{"価格", "プライシング", "値引"}},
					{Name: "place", Keywords: []string{"チャネル", "流通", "販路"}},
					{Name: "promotion", Keywords: []string{"プロモーション", "広告", "販促", "キャンペーン"}},
				},
			},
			{
				ID: "swot",
				Categories: []FrameworkCategory{
					{Name: "strengths", Keywords: []string{"強み", "優位性"}},
					{Name: "weaknesses", Keywords: []string{"弱み", "課題点"}},
					{Name: "opportunities", Keywords: []string{"機会", "チャンス"}},
					{Name: "threats", Keywords: []string{"脅威", "リスク要因"}},
				},
			},
			{
				ID: "pest",
				Categories: []FrameworkCategory{
					{Name: "political", Keywords: []string{"政治", "政策", "規制"}},
					{Name: "economic", Keywords: []string{"経済", "景気", "金利", "為替"}},
					{Name: "social", Keywords: []string{"社会", "人口動態", "文化"}},
					{Name: "technological", Keywords: []string{"技術", "デジタル", "イノベーション", "自動化"}},
				},
			},
		},
		Stopwords: stopwordSet(
			"こと", "もの", "ため", "よう", "場合",
		),
	}
}
