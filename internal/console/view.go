package console

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/userdir/userdir/internal/activity"
	"github.com/userdir/userdir/internal/users"
)

var displayPolicy = bluemonday.StrictPolicy()

var templateFuncs = template.FuncMap{
	"display": display,
}

// display strips markup from remote text before it is shown in a card
func display(value string) template.HTML {
	return template.HTML(displayPolicy.Sanitize(value))
}

type formField struct {
	Path  string
	Label string
	Input string
	Value string
}

type cardRow struct {
	Label string
	Value string
}

type card struct {
	ID   int
	Rows []cardRow
}

type pageData struct {
	Title     string
	RemoteURL string
	Editing   bool
	EditingID int
	Fields    []formField
	Cards     []card
	Failure   *activity.OperationLog
}

// cardFields is the row order of a user card
var cardFields = []cardRow{
	{Label: "Name:", Value: "name"},
	{Label: "Username:", Value: "username"},
	{Label: "Email:", Value: "email"},
	{Label: "Address:", Value: "address.street"},
	{Label: "Suite:", Value: "address.suite"},
	{Label: "City:", Value: "address.city"},
	{Label: "BS:", Value: "company.bs"},
	{Label: "Zipcode:", Value: "address.zipcode"},
	{Label: "Geo:lat", Value: "address.geo.lat"},
	{Label: "Geo:lng", Value: "address.geo.lng"},
	{Label: "Phone:", Value: "phone"},
	{Label: "Website:", Value: "website"},
	{Label: "Company:", Value: "company.name"},
	{Label: "Catchphrase:", Value: "company.catchPhrase"},
}

func (cs *ConsoleService) buildPage(c *gin.Context) pageData {
	form := cs.UserService.Form()

	data := pageData{
		Title:     "User Directory",
		RemoteURL: cs.Config.Common.Remote.BaseURL,
		Editing:   form.Editing,
		EditingID: form.EditingID,
	}

	for _, field := range users.Fields() {
		value, _ := users.GetField(form.Draft, field.Path)
		data.Fields = append(data.Fields, formField{
			Path:  field.Path,
			Label: field.Label,
			Input: field.Input,
			Value: value,
		})
	}

	for _, record := range cs.UserService.Records() {
		data.Cards = append(data.Cards, buildCard(record))
	}

	if cs.Activity != nil {
		failure, err := cs.Activity.LastFailure(c.Request.Context())
		if err != nil {
			cs.Logger.Error("Failed to read activity log", zap.Error(err))
		}
		data.Failure = failure
	}
	return data
}

func buildCard(record users.Record) card {
	rows := make([]cardRow, 0, len(cardFields))
	for _, field := range cardFields {
		value, _ := users.GetField(record, field.Value)
		rows = append(rows, cardRow{Label: field.Label, Value: value})
	}
	return card{ID: record.ID, Rows: rows}
}
