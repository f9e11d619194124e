// Package relevance implements the article pipeline core: keyword-based
// relevance filtering, additive importance scoring with stable ranking,
// topic categorization and duplicate suppression. All language-dependent
// data lives in a Lexicon that callers pass in explicitly; the algorithms
// themselves are language-agnostic.
package relevance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon bundles every language-dependent input of the pipeline: the
// keyword sets used for filtering and scoring, the ordered category
// definitions, and the digest formatter's display strings. Components take
// a Lexicon at construction time; there is no process-wide language switch.
type Lexicon struct {
	Language string `yaml:"language"`

	// AgricultureKeywords drive the relevance filter.
	AgricultureKeywords []string `yaml:"agriculture_keywords"`

	// HighImpactKeywords and CommodityKeywords drive the importance score.
	HighImpactKeywords []string `yaml:"high_impact_keywords"`
	CommodityKeywords  []string `yaml:"commodity_keywords"`

	// Categories are tested in order; the first whose keywords match wins.
	// Articles matching none fall into OtherCategory.
	Categories    []Category `yaml:"categories"`
	OtherCategory string     `yaml:"other_category"`

	// Themes feed the digest's executive-summary block.
	Themes []Theme `yaml:"themes"`

	Labels Labels `yaml:"labels"`
}

// Category pairs a display label with the keywords that route articles
// into it.
type Category struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// Theme is one market theme the digest header can call out. Its keyword
// list is bilingual because fetched articles mix languages regardless of
// the digest language.
type Theme struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Bullet   string   `yaml:"bullet"`
}

// Labels holds every fixed string the digest formatter emits.
type Labels struct {
	DigestTitle     string `yaml:"digest_title"`
	DateFormat      string `yaml:"date_format"`
	HeaderCounts    string `yaml:"header_counts"`     // fmt string: article count, source count
	KeyDevelopments string `yaml:"key_developments"`  // executive-summary section header
	DefaultBullet   string `yaml:"default_bullet"`    // bullet when no theme matched
	TopNews         string `yaml:"top_news"`          // top-news section header
	ByTopic         string `yaml:"by_topic"`          // category overview section header
	SourcePrefix    string `yaml:"source_prefix"`     // prepended to the source name
	ReadMore        string `yaml:"read_more"`         // fmt string: article link
	FooterGenerated string `yaml:"footer_generated"`  // first footer line
	FooterUpdated   string `yaml:"footer_updated"`    // second footer line
	NoArticles      string `yaml:"no_articles"`       // nothing fetched at all
	NoRelevantNews  string `yaml:"no_relevant_news"`  // fetched, but nothing relevant
	UntitledArticle string `yaml:"untitled_article"`  // placeholder for an empty title
}

// RussianLexicon returns the built-in Russian lexicon.
func RussianLexicon() Lexicon {
	return Lexicon{
		Language: "ru",
		AgricultureKeywords: []string{
			"сельское хозяйство", "фермерство", "урожай", "скот", "молочное", "птицеводство",
			"пшеница", "кукуруза", "соя", "рис", "хлопок", "сахар", "кофе",
			"удобрение", "пестицид", "орошение", "сбор урожая", "посадка",
			"продовольственная безопасность", "устойчивое земледелие", "органическое", "точное земледелие",
			"агротех", "сельхозтехника", "трактор", "семена", "зерно", "корм",
			"товар", "рыночная цена", "экспорт", "импорт", "торговля",
			"agriculture", "farming", "crop", "livestock", "dairy", "poultry",
			"wheat", "corn", "soybean", "rice", "cotton", "sugar", "coffee",
		},
		HighImpactKeywords: highImpactKeywords(),
		CommodityKeywords:  commodityKeywords(),
		Categories: []Category{
			{Label: "Зерновые и масличные", Keywords: []string{"пшеница", "кукуруза", "соя", "рис", "ячмень", "рожь", "овес", "подсолнечник", "рапс"}},
			{Label: "Животноводство", Keywords: []string{"скот", "свиньи", "птица", "молоко", "мясо", "животноводство", "крупный рогатый скот"}},
			{Label: "Технологии", Keywords: []string{"технология", "цифровизация", "ии", "автоматизация", "робот", "дрон", "сенсор"}},
			{Label: "Рынок и торговля", Keywords: []string{"цена", "торговля", "экспорт", "импорт", "рынок", "биржа", "фьючерс"}},
			{Label: "Политика и регулирование", Keywords: []string{"политика", "закон", "регулирование", "правительство", "субсидия", "налог"}},
			{Label: "Погода и экология", Keywords: []string{"погода", "засуха", "дождь", "климат", "экология", "устойчивость", "углерод"}},
			{Label: "Региональные рынки", Keywords: []string{"казахстан", "россия", "украина", "беларусь", "узбекистан", "регион"}},
		},
		OtherCategory: "Другое",
		Themes: []Theme{
			{Name: "prices", Keywords: themePriceKeywords(), Bullet: "• Динамика цен на сельхозпродукцию"},
			{Name: "weather", Keywords: themeWeatherKeywords(), Bullet: "• Влияние погодных условий на рынок"},
			{Name: "trade", Keywords: themeTradeKeywords(), Bullet: "• Изменения в торговых потоках"},
			{Name: "policy", Keywords: themePolicyKeywords(), Bullet: "• Новые регулятивные меры"},
			{Name: "technology", Keywords: themeTechKeywords(), Bullet: "• Внедрение новых технологий"},
			{Name: "supply_demand", Keywords: themeSupplyKeywords(), Bullet: "• Баланс спроса и предложения"},
		},
		Labels: Labels{
			DigestTitle:     "🌾 Дайджест сельскохозяйственного рынка",
			DateFormat:      "02.01.2006",
			HeaderCounts:    "📊 **%d статей** из %d источников",
			KeyDevelopments: "📈 **Ключевые события дня:**",
			DefaultBullet:   "• Общие тенденции сельскохозяйственного рынка",
			TopNews:         "📰 **Основные новости:**",
			ByTopic:         "📂 **По темам:**",
			SourcePrefix:    "📰 Источник: ",
			ReadMore:        "🔗 [Читать полностью](%s)",
			FooterGenerated: "🤖 Создано ботом Agriculture Digest",
			FooterUpdated:   "📅 Обновляется ежедневно",
			NoArticles:      "📰 Сегодня статей из источников не найдено.",
			NoRelevantNews:  "🌾 Сегодня новостей сельского хозяйства не найдено.",
			UntitledArticle: "Без заголовка",
		},
	}
}

// EnglishLexicon returns the built-in English lexicon.
func EnglishLexicon() Lexicon {
	return Lexicon{
		Language: "en",
		AgricultureKeywords: []string{
			"agriculture", "farming", "crop", "livestock", "dairy", "poultry",
			"wheat", "corn", "soybean", "rice", "cotton", "sugar", "coffee",
			"fertilizer", "pesticide", "irrigation", "harvest", "planting",
			"food security", "sustainable farming", "organic", "precision agriculture",
			"agtech", "farm equipment", "tractor", "seed", "grain", "feed",
			"commodity", "market price", "export", "import", "trade",
		},
		HighImpactKeywords: highImpactKeywords(),
		CommodityKeywords:  commodityKeywords(),
		Categories: []Category{
			{Label: "Grains & Oilseeds", Keywords: []string{"wheat", "corn", "soybean", "rice", "barley", "rye", "oats", "sunflower", "rapeseed"}},
			{Label: "Livestock & Dairy", Keywords: []string{"cattle", "pigs", "poultry", "milk", "meat", "livestock", "dairy"}},
			{Label: "Technology & Innovation", Keywords: []string{"technology", "digital", "ai", "automation", "robot", "drone", "sensor"}},
			{Label: "Market & Trade", Keywords: []string{"price", "trade", "export", "import", "market", "exchange", "futures"}},
			{Label: "Policy & Regulation", Keywords: []string{"policy", "law", "regulation", "government", "subsidy", "tax"}},
			{Label: "Weather & Environment", Keywords: []string{"weather", "drought", "rain", "climate", "environment", "sustainability", "carbon"}},
			{Label: "Regional Markets", Keywords: []string{"kazakhstan", "russia", "ukraine", "belarus", "uzbekistan", "region"}},
		},
		OtherCategory: "Other",
		Themes: []Theme{
			{Name: "prices", Keywords: themePriceKeywords(), Bullet: "• Agricultural commodity price movements"},
			{Name: "weather", Keywords: themeWeatherKeywords(), Bullet: "• Weather impact on markets"},
			{Name: "trade", Keywords: themeTradeKeywords(), Bullet: "• Trade flow changes"},
			{Name: "policy", Keywords: themePolicyKeywords(), Bullet: "• New regulatory measures"},
			{Name: "technology", Keywords: themeTechKeywords(), Bullet: "• Technology adoption"},
			{Name: "supply_demand", Keywords: themeSupplyKeywords(), Bullet: "• Supply and demand balance"},
		},
		Labels: Labels{
			DigestTitle:     "🌾 Agriculture Market Digest",
			DateFormat:      "January 2, 2006",
			HeaderCounts:    "📊 **%d articles** from %d sources",
			KeyDevelopments: "📈 **Key Market Developments:**",
			DefaultBullet:   "• General agricultural market trends",
			TopNews:         "📰 **Top News:**",
			ByTopic:         "📂 **By topic:**",
			SourcePrefix:    "📰 Source: ",
			ReadMore:        "🔗 [Read more](%s)",
			FooterGenerated: "🤖 Generated by Agriculture Digest Bot",
			FooterUpdated:   "📅 Updated daily",
			NoArticles:      "📰 No articles found from any sources today.",
			NoRelevantNews:  "🌾 No agriculture-related articles found today.",
			UntitledArticle: "Untitled",
		},
	}
}

// ForLanguage returns the built-in lexicon for a language code.
func ForLanguage(lang string) (Lexicon, error) {
	switch lang {
	case "ru":
		return RussianLexicon(), nil
	case "en":
		return EnglishLexicon(), nil
	default:
		return Lexicon{}, fmt.Errorf("unsupported digest language %q (want ru or en)", lang)
	}
}

// LoadLexicon reads a complete lexicon from a YAML file, for deployments
// that need to tune keywords without rebuilding.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("reading lexicon file: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parsing lexicon file %s: %w", path, err)
	}

	if err := lex.Validate(); err != nil {
		return Lexicon{}, fmt.Errorf("lexicon file %s: %w", path, err)
	}
	return lex, nil
}

// Validate rejects lexicons that would silently disable pipeline stages.
func (l Lexicon) Validate() error {
	if l.Language == "" {
		return fmt.Errorf("language is required")
	}
	if len(l.AgricultureKeywords) == 0 {
		return fmt.Errorf("agriculture_keywords must not be empty")
	}
	if len(l.HighImpactKeywords) == 0 {
		return fmt.Errorf("high_impact_keywords must not be empty")
	}
	if len(l.CommodityKeywords) == 0 {
		return fmt.Errorf("commodity_keywords must not be empty")
	}
	if len(l.Categories) == 0 {
		return fmt.Errorf("categories must not be empty")
	}
	if l.OtherCategory == "" {
		return fmt.Errorf("other_category is required")
	}
	return nil
}

// The scoring and theme keyword sets are bilingual on purpose: sources mix
// Russian and English content regardless of the digest language.

func highImpactKeywords() []string {
	return []string{
		"цена", "price", "рост", "rise", "падение", "fall", "кризис", "crisis",
		"экспорт", "export", "импорт", "import", "торговля", "trade",
		"засуха", "drought", "наводнение", "flood", "погода", "weather",
		"политика", "policy", "закон", "law", "регулирование", "regulation",
	}
}

func commodityKeywords() []string {
	return []string{
		"пшеница", "wheat", "кукуруза", "corn", "соя", "soybean", "рис", "rice",
		"ячмень", "barley", "рожь", "rye", "овес", "oats", "хлопок", "cotton",
	}
}

func themePriceKeywords() []string {
	return []string{"цена", "price", "рост", "rise", "падение", "fall", "стоимость", "cost"}
}

func themeWeatherKeywords() []string {
	return []string{"погода", "weather", "засуха", "drought", "дождь", "rain", "климат", "climate"}
}

func themeTradeKeywords() []string {
	return []string{"торговля", "trade", "экспорт", "export", "импорт", "import", "поставки", "supply"}
}

func themePolicyKeywords() []string {
	return []string{"политика", "policy", "закон", "law", "регулирование", "regulation", "правительство", "government"}
}

func themeTechKeywords() []string {
	return []string{"технология", "technology", "цифровизация", "digital", "ии", "ai", "автоматизация", "automation"}
}

func themeSupplyKeywords() []string {
	return []string{"спрос", "demand", "предложение", "supply", "урожай", "harvest", "производство", "production"}
}
