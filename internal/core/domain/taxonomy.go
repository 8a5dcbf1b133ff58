package domain

// SeedSubject is a subject template repeated under every seeded category.
type SeedSubject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Color       string `yaml:"color"`
}

type SeedCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Color       string `yaml:"color"`
}

// Taxonomy is the full category and subject set inserted on first start.
type Taxonomy struct {
	Categories []SeedCategory `yaml:"categories"`
	Subjects   []SeedSubject  `yaml:"subjects"`
}

func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Categories: []SeedCategory{
			{Name: "CLASS 9", Description: "Class 9 study materials", Icon: "book-open", Color: "#4F46E5"},
			{Name: "CLASS 10", Description: "Class 10 study materials", Icon: "graduation-cap", Color: "#7C3AED"},
		},
		Subjects: []SeedSubject{
			{Name: "English", Icon: "book", Color: "#3B82F6"},
			{Name: "Hindi", Icon: "book", Color: "#EF4444"},
			{Name: "Math", Icon: "calculator", Color: "#10B981"},
			{Name: "Biology", Icon: "flask", Color: "#84CC16"},
			{Name: "Chemistry", Icon: "flask-conical", Color: "#F59E0B"},
			{Name: "Physics", Icon: "atom", Color: "#6366F1"},
			{Name: "History", Icon: "landmark", Color: "#8B5CF6"},
			{Name: "Geography", Icon: "globe", Color: "#EC4899"},
			{Name: "Economics", Icon: "bar-chart", Color: "#14B8A6"},
			{Name: "Politics", Icon: "building-columns", Color: "#F97316"},
			{Name: "Urdu", Icon: "book", Color: "#8B5CF6"},
		},
	}
}
