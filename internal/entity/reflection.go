package entity

const (
	MinScale = 1
	MaxScale = 5
)

type Category string

const (
	CategoryContent   Category = "Content"
	CategoryExercises Category = "Exercises"
	CategoryTime      Category = "Time"
	CategoryOther     Category = "Other"
)

// Categories lists the choices in the order the form shows them.
var Categories = []Category{CategoryContent, CategoryExercises, CategoryTime, CategoryOther}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ScaleValues returns 1..5, the domain of difficulty and sentiment.
func ScaleValues() []int {
	values := make([]int, 0, MaxScale-MinScale+1)
	for v := MinScale; v <= MaxScale; v++ {
		values = append(values, v)
	}
	return values
}

var difficultyLabels = map[int]string{
	1: "Very easy",
	2: "Easy",
	3: "Normal",
	4: "Hard",
	5: "Very hard",
}

func DifficultyLabel(v int) string {
	if label, ok := difficultyLabels[v]; ok {
		return label
	}
	return "?"
}

type Reflection struct {
	ID         int      `json:"id"`
	UserID     *int     `json:"user_id,omitempty"`
	Username   string   `json:"username"`
	Difficulty int      `json:"difficulty"`
	Sentiment  int      `json:"sentiment"`
	Category   Category `json:"category"`
	Comment    string   `json:"comment"`
}

// Anonymous reports whether the reflection was submitted without an account.
func (r Reflection) Anonymous() bool {
	return r.UserID == nil
}

func NewReflection(userID *int, difficulty, sentiment int, category Category, comment string) Reflection {
	return Reflection{
		UserID:     userID,
		Difficulty: difficulty,
		Sentiment:  sentiment,
		Category:   category,
		Comment:    comment,
	}
}
