package httpadapter

import (
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

const groupByFormat = "format"

type listParams struct {
	query domain.Query
	group string
}

func bindListParams(values url.Values) (listParams, error) {
	var (
		params listParams
		sort   string
	)
	err := bindOptional(values, map[string]*string{
		"search": &params.query.SearchTerm,
		"type":   &params.query.TypeFilter,
		"format": &params.query.FormatFilter,
		"sort":   &sort,
		"group":  &params.group,
	})
	if err != nil {
		return listParams{}, err
	}
	params.query.SortKey = domain.SortKey(sort)
	return params, nil
}

func bindFolderQuery(values url.Values) (domain.Query, error) {
	var (
		query domain.Query
		sort  string
	)
	err := bindOptional(values, map[string]*string{
		"search": &query.SearchTerm,
		"type":   &query.TypeFilter,
		"sort":   &sort,
	})
	if err != nil {
		return domain.Query{}, err
	}
	query.SortKey = domain.SortKey(sort)
	return query, nil
}

func bindSystemDark(values url.Values) (bool, error) {
	var system string
	if err := bindOptional(values, map[string]*string{"system": &system}); err != nil {
		return false, err
	}
	return system == string(domain.ThemeDark), nil
}

func bindOptional(values url.Values, dest map[string]*string) error {
	for name, target := range dest {
		if err := runtime.BindQueryParameter("form", true, false, name, values, target); err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "bind query", err)
		}
	}
	return nil
}
