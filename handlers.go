package main

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"money-matters-dashboard/internal/events"
	"money-matters-dashboard/internal/hasura"
	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/logger"
	"money-matters-dashboard/internal/snapshot"
	"money-matters-dashboard/internal/store"
	"money-matters-dashboard/internal/validate"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	recentCount       = 3
	transactionsTable = "transactions"
)

// server holds the handler dependencies.
type server struct {
	source    store.Source
	loader    *snapshot.Loader
	views     *snapshot.ViewStates
	publisher events.Publisher

	location     *time.Location
	aggregator   *ledger.Aggregator
	adminUserID  string
	pageLimit    int
	maxPageLimit int
	now          func() time.Time
}

func (s *server) routes(r *gin.Engine) {
	r.GET("/health", s.healthCheck)

	api := r.Group("/api", requireSession(s.adminUserID))
	api.GET("/dashboard", s.getDashboard)
	api.GET("/transactions", s.listTransactions)
	api.GET("/transactions/facets", s.getFacets)
	api.GET("/transactions/export", s.exportTransactions)
	api.POST("/transactions", s.addTransaction)
	api.PUT("/transactions/:id", s.updateTransaction)
	api.DELETE("/transactions/:id", s.deleteTransaction)
	api.POST("/refresh", s.refresh)
}

// respondError maps an error to its status and a JSON body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var upstream *hasura.StatusError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, validate.ErrInvalid), errors.Is(err, store.ErrInvalidUser):
		status = http.StatusBadRequest
	case errors.As(err, &upstream):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// healthCheck handles the health check endpoint
func (s *server) healthCheck(c *gin.Context) {
	if err := s.source.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "money-matters-dashboard",
	})
}

// getDashboard returns the totals cards, chart series and latest
// transactions. Backends that aggregate server side are asked for totals and
// daily sums; otherwise both come from the snapshot.
func (s *server) getDashboard(c *gin.Context) {
	sess := sessionFrom(c)
	scope := sess.Scope()
	summarizer, serverSide := s.source.(store.Summarizer)

	var (
		snap   *snapshot.Snapshot
		totals ledger.Totals
		daily  []ledger.Transaction
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		snap, err = s.loader.Load(ctx, scope)
		return err
	})
	if serverSide {
		g.Go(func() error {
			var err error
			totals, err = summarizer.Totals(ctx, scope)
			return err
		})
		g.Go(func() error {
			var err error
			daily, err = summarizer.DailyTotals(ctx, scope)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}

	from, to := ledger.WeekWindow(s.now(), s.location)
	if !serverSide {
		totals = ledger.SumTotals(snap.Transactions)
		daily = ledger.Within(snap.Transactions, from, to)
	}

	recent := s.viewer().Build(snap.Transactions, ledger.FilterState{
		Tab:     ledger.TabAll,
		SortKey: ledger.SortDate,
		SortDir: ledger.Desc,
		Limit:   recentCount,
	}, nil)

	c.JSON(http.StatusOK, dashboardResponse{
		Totals:       newTotalsResponse(totals),
		Distribution: ledger.Distribution(totals),
		Weekly:       s.aggregator.ByWeekday(daily),
		Daily:        ledger.AggregateByDate(daily, from, 7, s.location),
		Recent:       recent.Page,
		LastUpdated:  snap.FetchedAt,
	})
}

func (s *server) viewer() ledger.Viewer {
	return ledger.Viewer{Location: s.location}
}

// filterState binds the query and folds it into the session's stored
// cursor. Non-admins never filter by user.
func (s *server) filterState(c *gin.Context, sess Session) (ledger.FilterState, bool) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return ledger.FilterState{}, false
	}
	state, err := q.state(s.pageLimit, s.maxPageLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return ledger.FilterState{}, false
	}
	if !sess.IsAdmin() {
		state.Users = nil
	}
	return state, true
}

// listTransactions returns one page of the filtered, sorted collection.
func (s *server) listTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	sess := sessionFrom(c)

	state, ok := s.filterState(c, sess)
	if !ok {
		return
	}
	if applied, err := s.views.Apply(ctx, sess.UserID, transactionsTable, state); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("view state not stored")
	} else {
		state = applied
	}

	snap, err := s.loader.Load(ctx, sess.Scope())
	if err != nil {
		respondError(c, err)
		return
	}

	view := s.viewer().Build(snap.Transactions, state, snap.Resolver())
	c.JSON(http.StatusOK, listResponse{
		Page:        view.Page,
		Total:       view.TotalMatched,
		Offset:      view.Offset,
		Limit:       view.Limit,
		HasPrev:     view.HasPrev(),
		HasNext:     view.HasNext(),
		Totals:      newTotalsResponse(ledger.SumTotals(snap.Transactions)),
		LastUpdated: snap.FetchedAt,
	})
}

// getFacets lists the values the filter menus offer.
func (s *server) getFacets(c *gin.Context) {
	sess := sessionFrom(c)
	snap, err := s.loader.Load(c.Request.Context(), sess.Scope())
	if err != nil {
		respondError(c, err)
		return
	}

	facets := ledger.Facets(snap.Transactions)
	resp := facetsResponse{Categories: facets.Categories}
	if sess.IsAdmin() {
		resp.Users = make([]userFacet, 0, len(facets.Users))
		for _, id := range facets.Users {
			resp.Users = append(resp.Users, userFacet{ID: id, Name: store.DisplayName(snap.Names, id)})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// exportTransactions downloads every row matching the filters as CSV.
func (s *server) exportTransactions(c *gin.Context) {
	sess := sessionFrom(c)
	state, ok := s.filterState(c, sess)
	if !ok {
		return
	}
	snap, err := s.loader.Load(c.Request.Context(), sess.Scope())
	if err != nil {
		respondError(c, err)
		return
	}

	rows := s.viewer().Filtered(snap.Transactions, state, snap.Resolver())
	prefix := ""
	if sess.IsAdmin() {
		prefix = "admin"
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+ledger.ExportFilename(prefix, s.now().In(s.location))+`"`)
	c.Status(http.StatusOK)
	if err := ledger.WriteCSV(c.Writer, rows, s.location); err != nil {
		_ = c.Error(err)
	}
}

// bindDraft decodes and validates an add/edit form.
func bindDraft(c *gin.Context) (store.Draft, bool) {
	var d store.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return d, false
	}
	if err := validate.Struct(d); err != nil {
		respondError(c, err)
		return d, false
	}
	return d, true
}

// afterMutation announces the change and drops cached snapshots of the
// owner and the admin.
func (s *server) afterMutation(c *gin.Context, op events.Op, userID, id string) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	if err := s.loader.Invalidate(ctx, store.Scope{UserID: userID}); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("snapshot invalidate failed")
	}
	if err := s.publisher.Publish(ctx, events.NewChange(op, userID, id)); err != nil {
		log.Warn().Err(err).Str("transaction_id", id).Msg("change not published")
	}
}

// addTransaction creates a transaction. Admins may create one for any user.
func (s *server) addTransaction(c *gin.Context) {
	sess := sessionFrom(c)
	d, ok := bindDraft(c)
	if !ok {
		return
	}
	if !sess.IsAdmin() || d.UserID == "" {
		d.UserID = sess.UserID
	}

	t, err := s.source.Create(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	s.afterMutation(c, events.OpCreated, t.UserID, t.ID)
	c.JSON(http.StatusCreated, t)
}

// updateTransaction edits a transaction inside the caller's scope.
func (s *server) updateTransaction(c *gin.Context) {
	sess := sessionFrom(c)
	d, ok := bindDraft(c)
	if !ok {
		return
	}

	t, err := s.source.Update(c.Request.Context(), sess.Scope(), c.Param("id"), d)
	if err != nil {
		respondError(c, err)
		return
	}
	s.afterMutation(c, events.OpUpdated, t.UserID, t.ID)
	c.JSON(http.StatusOK, t)
}

// deleteTransaction removes a transaction inside the caller's scope.
func (s *server) deleteTransaction(c *gin.Context) {
	sess := sessionFrom(c)
	id := c.Param("id")

	// the owner is needed to invalidate the right snapshot
	owner := sess.UserID
	if sess.IsAdmin() {
		if snap, err := s.loader.Load(c.Request.Context(), sess.Scope()); err == nil {
			if i := slices.IndexFunc(snap.Transactions, func(t ledger.Transaction) bool { return t.ID == id }); i >= 0 {
				owner = snap.Transactions[i].UserID
			}
		}
	}

	if err := s.source.Delete(c.Request.Context(), sess.Scope(), id); err != nil {
		respondError(c, err)
		return
	}
	s.afterMutation(c, events.OpDeleted, owner, id)
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// refresh replaces the session's snapshot with a fresh fetch.
func (s *server) refresh(c *gin.Context) {
	sess := sessionFrom(c)
	snap, err := s.loader.Refresh(c.Request.Context(), sess.Scope())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refreshResponse{Count: len(snap.Transactions), LastUpdated: snap.FetchedAt})
}
