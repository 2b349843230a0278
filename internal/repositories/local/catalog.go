// Package local serves the built-in catalog data set. It is the fallback for
// every remote-source failure and the authority for category and portfolio
// collections.
package local

import (
	"context"

	"github.com/safi-group/api/internal/domain"
)

// Repository serves the embedded catalog tables in load order.
type Repository struct {
	products   []domain.Product
	categories []domain.Category
	portfolio  []domain.PortfolioItem
}

// NewRepository constructs the repository over the built-in data set.
func NewRepository() *Repository {
	return &Repository{
		products:   seedProducts(),
		categories: seedCategories(),
		portfolio:  seedPortfolio(),
	}
}

// Products implements repositories.CatalogRepository.
func (r *Repository) Products(_ context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), r.products...), nil
}

// Categories implements repositories.CatalogRepository.
func (r *Repository) Categories(_ context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), r.categories...), nil
}

// Portfolio implements repositories.CatalogRepository.
func (r *Repository) Portfolio(_ context.Context) ([]domain.PortfolioItem, error) {
	return append([]domain.PortfolioItem(nil), r.portfolio...), nil
}

func intPtr(v int) *int { return &v }

func seedCategories() []domain.Category {
	return []domain.Category{
		{ID: domain.CategoryAll, Name: "الكل", Icon: "grid"},
		{ID: "neon", Name: "نيون", Icon: "zap"},
		{ID: "canvas", Name: "كانفس", Icon: "frame"},
		{ID: "stands", Name: "ستاندات", Icon: "presentation"},
		{ID: "gifts", Name: "هدايا", Icon: "gift"},
		{ID: "stickers", Name: "ملصقات", Icon: "sticker"},
		{ID: "printing", Name: "طباعة", Icon: "shirt"},
		{ID: "cards", Name: "كروت", Icon: "creditcard"},
	}
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:              "neon-custom-sm",
			Name:            "لوحة نيون مخصصة - صغيرة",
			Description:     "لوحة نيون LED بتصميمك الخاص، مثالية للمكاتب والغرف.",
			LongDescription: "لوحة نيون LED عالية الجودة مصممة خصيصاً لك. تأتي مع وحدة تحكم لتعديل السطوع.",
			Price:           350,
			OldPrice:        intPtr(450),
			CategoryID:      "neon",
			CategoryName:    "نيون",
			Icon:            "neon",
			Size:            "30×20 سم",
			Features:        []string{"LED موفر للطاقة", "تحكم بالسطوع", "ضمان سنتين", "تصميم مخصص"},
			InStock:         true,
			Badge:           "خصم 22%",
			Rating:          5,
		},
		{
			ID:              "neon-custom-lg",
			Name:            "لوحة نيون مخصصة - كبيرة",
			Description:     "لوحة نيون LED احترافية للمحلات والمطاعم.",
			LongDescription: "لوحة نيون احترافية بحجم كبير مناسبة للمحلات التجارية والمطاعم. تشمل التركيب والتوصيل.",
			Price:           750,
			CategoryID:      "neon",
			CategoryName:    "نيون",
			Icon:            "neon-lg",
			Size:            "60×40 سم",
			Features:        []string{"إضاءة احترافية", "مقاوم للرطوبة", "تركيب مجاني", "ضمان 3 سنوات"},
			InStock:         true,
			Badge:           "الأكثر طلباً",
			Rating:          5,
		},
		{
			ID:              "canvas-md",
			Name:            "لوحة كانفس - مقاس وسط",
			Description:     "طباعة عالية الجودة على قماش كانفس مشدود.",
			LongDescription: "لوحة كانفس مطبوعة بدقة عالية على قماش قطني فاخر ومشدود على إطار خشبي متين.",
			Price:           180,
			OldPrice:        intPtr(220),
			CategoryID:      "canvas",
			CategoryName:    "كانفس",
			Icon:            "canvas",
			Size:            "40×60 سم",
			Features:        []string{"قماش قطني 100%", "إطار خشبي", "ألوان ثابتة", "جاهز للتعليق"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "canvas-lg",
			Name:            "لوحة كانفس - مقاس كبير",
			Description:     "لوحة كانفس فاخرة بإطار خشبي.",
			LongDescription: "لوحة كانفس فاخرة بمقاس كبير، مطبوعة بتقنية Giclée. إطار خشبي سميك مع حواف ملونة.",
			Price:           320,
			CategoryID:      "canvas",
			CategoryName:    "كانفس",
			Icon:            "canvas-lg",
			Size:            "60×90 سم",
			Features:        []string{"طباعة Giclée", "إطار سميك", "حواف ملونة", "حماية UV"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "stand-rollup",
			Name:            "ستاند رول أب",
			Description:     "ستاند عرض قابل للطي مع طباعة عالية الدقة.",
			LongDescription: "ستاند رول أب احترافي بهيكل ألمنيوم خفيف وقوي. يأتي مع حقيبة حمل.",
			Price:           280,
			OldPrice:        intPtr(350),
			CategoryID:      "stands",
			CategoryName:    "ستاندات",
			Icon:            "rollup",
			Size:            "80×200 سم",
			Features:        []string{"هيكل ألمنيوم", "سهل التركيب", "حقيبة حمل", "طباعة HD"},
			InStock:         true,
			Badge:           "الأكثر مبيعاً",
			Rating:          5,
		},
		{
			ID:              "stand-xbanner",
			Name:            "ستاند X-Banner",
			Description:     "ستاند خفيف وسهل التركيب للمعارض.",
			LongDescription: "ستاند X-Banner اقتصادي وعملي، مثالي للمعارض والمؤتمرات.",
			Price:           150,
			CategoryID:      "stands",
			CategoryName:    "ستاندات",
			Icon:            "xbanner",
			Size:            "60×160 سم",
			Features:        []string{"خفيف الوزن", "اقتصادي", "سهل الحمل", "بانر فينيل"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "gift-pens",
			Name:            "أقلام دعائية",
			Description:     "أقلام جافة بطباعة الشعار. حد أدنى 50 قطعة.",
			LongDescription: "أقلام دعائية عالية الجودة بتصميم أنيق. طباعة الشعار بالليزر أو السلك سكرين.",
			Price:           125,
			CategoryID:      "gifts",
			CategoryName:    "هدايا",
			Icon:            "pen",
			Size:            "50 قطعة",
			Features:        []string{"طباعة ليزر", "ألوان متعددة", "جودة عالية", "كتابة سلسة"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "gift-keychains",
			Name:            "ميداليات مفاتيح",
			Description:     "ميداليات معدنية بتصميم مخصص. حد أدنى 30 قطعة.",
			LongDescription: "ميداليات مفاتيح معدنية فاخرة بتصميم مخصص. حفر بالليزر أو طباعة ملونة.",
			Price:           180,
			OldPrice:        intPtr(220),
			CategoryID:      "gifts",
			CategoryName:    "هدايا",
			Icon:            "keychain",
			Size:            "30 قطعة",
			Features:        []string{"معدن فاخر", "حفر ليزر", "أشكال متعددة", "تغليف فردي"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "gift-mugs",
			Name:            "أكواب سيراميك",
			Description:     "أكواب بطباعة حرارية عالية الجودة. حد أدنى 20 قطعة.",
			LongDescription: "أكواب سيراميك بيضاء مع طباعة حرارية ثابتة. آمنة للميكروويف وغسالة الصحون.",
			Price:           240,
			CategoryID:      "gifts",
			CategoryName:    "هدايا",
			Icon:            "mug",
			Size:            "20 قطعة",
			Features:        []string{"سيراميك عالي الجودة", "طباعة حرارية", "آمن للميكروويف", "سعة 330 مل"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "sticker-vinyl",
			Name:            "ملصقات فينيل",
			Description:     "ملصقات مقاومة للماء بتصميمك. مقاس حتى 10×10 سم.",
			LongDescription: "ملصقات فينيل عالية الجودة مقاومة للماء والخدش. قص حسب الشكل متاح.",
			Price:           95,
			OldPrice:        intPtr(120),
			CategoryID:      "stickers",
			CategoryName:    "ملصقات",
			Icon:            "sticker",
			Size:            "100 قطعة",
			Features:        []string{"مقاوم للماء", "مقاوم للخدش", "قص حسب الشكل", "لاصق قوي"},
			InStock:         true,
			Badge:           "الأكثر طلباً",
			Rating:          5,
		},
		{
			ID:              "sticker-clear",
			Name:            "ستيكرات شفافة",
			Description:     "ملصقات شفافة للتغليف والمنتجات.",
			LongDescription: "ملصقات شفافة احترافية بطباعة عالية الدقة. مثالية للتغليف الفاخر.",
			Price:           120,
			CategoryID:      "stickers",
			CategoryName:    "ملصقات",
			Icon:            "sticker-clear",
			Size:            "100 قطعة",
			Features:        []string{"شفاف بالكامل", "طباعة HD", "مظهر فاخر", "سهل التطبيق"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "print-tshirt",
			Name:            "تيشيرت مطبوع",
			Description:     "تيشيرت قطن 100% بطباعة DTF عالية الجودة.",
			LongDescription: "تيشيرت قطن 100% بجودة ممتازة. متوفر بجميع المقاسات من S إلى 3XL.",
			Price:           75,
			OldPrice:        intPtr(95),
			CategoryID:      "printing",
			CategoryName:    "طباعة",
			Icon:            "tshirt",
			Size:            "S - 3XL",
			Features:        []string{"قطن 100%", "طباعة DTF", "ألوان ثابتة", "جميع المقاسات"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "print-hoodie",
			Name:            "هودي مطبوع",
			Description:     "هودي فليس بطباعة أمامية أو خلفية.",
			LongDescription: "هودي فليس دافئ ومريح بطباعة DTF. خامة ناعمة من الداخل.",
			Price:           145,
			CategoryID:      "printing",
			CategoryName:    "طباعة",
			Icon:            "hoodie",
			Size:            "S - 3XL",
			Features:        []string{"فليس دافئ", "جيب كنغر", "قبعة مريحة", "طباعة أمامية/خلفية"},
			InStock:         true,
			Badge:           "جديد",
			Rating:          5,
		},
		{
			ID:              "cards-standard",
			Name:            "كروت شخصية عادية",
			Description:     "كروت بزنس فاخرة، ورق 350 جرام.",
			LongDescription: "كروت شخصية احترافية بورق 350 جرام سميك. طباعة على الوجهين بألوان CMYK.",
			Price:           85,
			CategoryID:      "cards",
			CategoryName:    "كروت",
			Icon:            "card",
			Size:            "100 كرت",
			Features:        []string{"ورق 350 جرام", "طباعة وجهين", "تشطيب مات/لامع", "تصميم مجاني"},
			InStock:         true,
			Rating:          5,
		},
		{
			ID:              "cards-vip",
			Name:            "كروت شخصية فاخرة",
			Description:     "كروت مع طباعة ذهبية أو فضية وقص ليزر.",
			LongDescription: "كروت شخصية فاخرة VIP بلمسات ذهبية أو فضية وقص ليزر. ورق فاخر 400 جرام.",
			Price:           180,
			OldPrice:        intPtr(250),
			CategoryID:      "cards",
			CategoryName:    "كروت",
			Icon:            "card-vip",
			Size:            "100 كرت",
			Features:        []string{"طباعة ذهبية/فضية", "قص ليزر", "ورق 400 جرام", "تصميم VIP"},
			InStock:         true,
			Badge:           "فاخر",
			Rating:          5,
		},
	}
}

func seedPortfolio() []domain.PortfolioItem {
	return []domain.PortfolioItem{
		{
			ID:          "conference-landing",
			Title:       "Conference Landing",
			Subtitle:    "Hero typography + CTA system",
			Category:    "Events",
			Style:       "Landing",
			Tags:        []string{"Events", "Landing", "Bento"},
			Description: "صفحة هبوط فعالية مع تسلسل معلومات واضح وتحويل سريع.",
			Background:  "linear-gradient(135deg, rgba(229,57,53,.22), rgba(255,255,255,.06), rgba(129,216,208,.18))",
		},
		{
			ID:          "packaging-system",
			Title:       "Packaging System",
			Subtitle:    "Print-ready identity",
			Category:    "Printing",
			Style:       "Packaging",
			Tags:        []string{"Printing", "Packaging", "Craft"},
			Description: "نظام تغليف متكامل: ألوان، خامات، تشطيب.",
			Background:  "radial-gradient(circle at 30% 30%, rgba(129,216,208,.22), transparent 55%)",
		},
		{
			ID:          "ad-campaign-set",
			Title:       "Ad Campaign Set",
			Subtitle:    "Hook + message consistency",
			Category:    "Ads",
			Style:       "Content",
			Tags:        []string{"Ads", "Content", "Performance"},
			Description: "حملة إعلانية مرئية: وحدات متعددة بنفس الهوية.",
			Background:  "linear-gradient(180deg, rgba(255,255,255,.08), rgba(129,216,208,.18))",
		},
		{
			ID:          "bento-service-hub",
			Title:       "Bento Service Hub",
			Subtitle:    "Apple/Stripe-inspired grid",
			Category:    "Design",
			Style:       "UI",
			Tags:        []string{"UI", "Bento", "Glass"},
			Description: "واجهة خدمات بتصميم bento مع glassmorphism.",
			Background:  "linear-gradient(135deg, rgba(129,216,208,.20), rgba(229,57,53,.18))",
		},
		{
			ID:          "brand-kit-v1",
			Title:       "Brand Kit v1",
			Subtitle:    "Typography + tone + rules",
			Category:    "Design",
			Style:       "Brand",
			Tags:        []string{"Brand", "Guidelines", "Type"},
			Description: "باكدج براند: خطوط، ألوان، أسلوب كلام.",
			Background:  "radial-gradient(circle at 35% 35%, rgba(229,57,53,.24), transparent 55%)",
		},
	}
}
