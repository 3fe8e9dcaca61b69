package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/rule"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// GetRules godoc
//
//	@Id				GetRules
//
//	@Summary		Get all alert rules
//	@Description	Gets every alert rule, ordered by id.
//	@Tags			Rules
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{array}		rule.Rule			"list of rules"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/rules [get]
func GetRules(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeRule, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	rules, err := rule.R().GetAll()
	if err != nil {
		zap.L().Error("GetRules", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}

	rulesSlice := make([]rule.Rule, 0, len(rules))
	for _, r := range rules {
		rulesSlice = append(rulesSlice, r)
	}

	// ids are unique, a plain sort is enough
	sort.Slice(rulesSlice, func(i, j int) bool {
		return rulesSlice[i].ID < rulesSlice[j].ID
	})

	httputil.JSON(w, r, rulesSlice)
}

// GetRule godoc
//
//	@Id				GetRule
//
//	@Summary		Get an alert rule
//	@Description	Gets the alert rule with the specified id
//	@Tags			Rules
//	@Produce		json
//	@Param			id	path	int	true	"rule ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	rule.Rule			"rule"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/rules/{id} [get]
func GetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ruleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse rule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeRule, strconv.FormatInt(ruleID, 10), permissions.ActionGet)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	matchedRule, found, err := rule.R().Get(ruleID)
	if err != nil {
		zap.L().Error("Cannot get rule", zap.Int64("id", ruleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("Rule not found", zap.Int64("id", ruleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, err)
		return
	}

	httputil.JSON(w, r, matchedRule)
}

// ValidateRule godoc
//
//	@Id				ValidateRule
//
//	@Summary		Validate a new rule definition
//	@Description	Validates a new rule definition, including the parsing of its expression,
//	@Description	without persisting anything. Meant as a dry-run for rule editors.
//	@Tags			Rules
//	@Accept			json
//	@Produce		json
//	@Param			rule	body	rule.Rule	true	"rule (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	rule.Rule			"rule"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		403	{object}	httputil.APIError	"Forbidden"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/rules/validate [post]
func ValidateRule(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermissionAtLeastOne([]permissions.Permission{
		permissions.New(permissions.TypeRule, permissions.All, permissions.ActionCreate),
		permissions.New(permissions.TypeRule, permissions.All, permissions.ActionUpdate),
	}) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var newRule rule.Rule
	if err := json.NewDecoder(r.Body).Decode(&newRule); err != nil {
		zap.L().Warn("Rule json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if ok, err := newRule.IsValid(); !ok {
		zap.L().Warn("Invalid rule definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	httputil.JSON(w, r, newRule)
}

// PostRule godoc
//
//	@Id				PostRule
//
//	@Summary		Create a new alert rule
//	@Description	Adds an alert rule evaluated against every service status snapshot.
//	@Description	The rule name must be unique.
//	@Tags			Rules
//	@Accept			json
//	@Produce		json
//	@Param			rule	body	rule.Rule	true	"rule (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	rule.Rule			"rule"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/rules [post]
func PostRule(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeRule, permissions.All, permissions.ActionCreate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var newRule rule.Rule
	err := json.NewDecoder(r.Body).Decode(&newRule)
	if err != nil {
		zap.L().Warn("Rule json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if ok, err := newRule.IsValid(); !ok {
		zap.L().Warn("Invalid rule definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	exists, err := rule.R().CheckByName(newRule.Name)
	if err != nil {
		zap.L().Error("PostRule.CheckByName", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if exists {
		zap.L().Warn("Rule name already exists", zap.String("name", newRule.Name))
		httputil.Error(w, r, httputil.ErrAPIResourceDuplicate, errors.New("a rule already exists with this name"))
		return
	}

	ruleID, err := rule.R().Create(newRule)
	if err != nil {
		zap.L().Error("PostRule.Create", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBInsertFailed, err)
		return
	}

	createdRule, found, err := rule.R().Get(ruleID)
	if err != nil {
		zap.L().Error("Cannot get rule", zap.Int64("id", ruleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("Rule not found after creation", zap.Int64("id", ruleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, err)
		return
	}

	httputil.JSON(w, r, createdRule)
}

// PutRule godoc
//
//	@Id				PutRule
//
//	@Summary		Update an alert rule
//	@Description	Replaces the alert rule with the specified id
//	@Tags			Rules
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int			true	"rule ID"
//	@Param			rule	body	rule.Rule	true	"rule (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	rule.Rule			"rule"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/rules/{id} [put]
func PutRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ruleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse rule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeRule, strconv.FormatInt(ruleID, 10), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var newRule rule.Rule
	err = json.NewDecoder(r.Body).Decode(&newRule)
	if err != nil {
		zap.L().Warn("Rule json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}
	newRule.ID = ruleID

	if ok, err := newRule.IsValid(); !ok {
		zap.L().Warn("Invalid rule definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	err = rule.R().Update(newRule)
	if err != nil {
		zap.L().Error("PutRule.Update", zap.Int64("id", ruleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBUpdateFailed, err)
		return
	}

	updatedRule, found, err := rule.R().Get(ruleID)
	if err != nil {
		zap.L().Error("Cannot get rule", zap.Int64("id", ruleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("Rule not found after update", zap.Int64("id", ruleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, err)
		return
	}

	httputil.JSON(w, r, updatedRule)
}

// DeleteRule godoc
//
//	@Id				DeleteRule
//
//	@Summary		Delete an alert rule
//	@Description	Deletes the alert rule with the specified id
//	@Tags			Rules
//	@Produce		json
//	@Param			id	path	int	true	"rule ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string				"status OK"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/rules/{id} [delete]
func DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ruleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse rule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeRule, strconv.FormatInt(ruleID, 10), permissions.ActionDelete)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	err = rule.R().Delete(ruleID)
	if err != nil {
		zap.L().Error("Cannot delete rule", zap.Int64("id", ruleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBDeleteFailed, err)
		return
	}

	httputil.OK(w, r)
}
