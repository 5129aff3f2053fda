package hh

// searchResponse mirrors the top-level hh.ru /vacancies JSON response.
type searchResponse struct {
	Items   []vacancyItem `json:"items"`
	Found   int           `json:"found"`
	Pages   int           `json:"pages"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

// vacancyItem mirrors a single hh.ru vacancy as returned by search.
type vacancyItem struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Employer     employerRef `json:"employer"`
	Salary       *Salary     `json:"salary"`
	AlternateURL string      `json:"alternate_url"`
	PublishedAt  string      `json:"published_at"`
	Area         areaRef     `json:"area"`
	Snippet      snippet     `json:"snippet"`
}

type employerRef struct {
	Name string `json:"name"`
}

type areaRef struct {
	Name string `json:"name"`
}

// Salary is the hh.ru salary descriptor; any of the bounds may be absent.
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
}

type snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}
