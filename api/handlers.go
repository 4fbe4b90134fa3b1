package api

import (
	"net/http"
	"strconv"

	"arenaserver/models"
	"arenaserver/service"

	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP surface over the domain services.
type Handler struct {
	users       service.UserService
	matchmaking service.MatchmakingService
	results     service.MatchResultService
	wallet      service.WalletService
	jwtService  *JWTService
}

// NewHandler creates a new API handler
func NewHandler(users service.UserService, matchmaking service.MatchmakingService, results service.MatchResultService, wallet service.WalletService, jwtService *JWTService) *Handler {
	return &Handler{
		users:       users,
		matchmaking: matchmaking,
		results:     results,
		wallet:      wallet,
		jwtService:  jwtService,
	}
}

type registerRequest struct {
	Username   string `json:"username" binding:"required"`
	ReferredBy *int64 `json:"referred_by"`
}

// Register creates (or fetches) the account for a username and issues a token
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	user, err := h.users.GetOrCreateUser(c.Request.Context(), req.Username, req.ReferredBy)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtService.IssueToken(user.ID, "player")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  userView(user),
		"token": token,
	})
}

// Profile returns the caller's account read model
func (h *Handler) Profile(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           userView(profile.User),
		"win_rate":       profile.WinRate,
		"active_match":   matchView(profile.ActiveMatch),
		"recent_entries": ledgerView(profile.RecentEntries),
	})
}

// Ledger returns the caller's recent ledger history
func (h *Handler) Ledger(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.users.GetLedger(c.Request.Context(), callerID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": ledgerView(entries)})
}

// GetMatch returns one match
func (h *Handler) GetMatch(c *gin.Context) {
	match, err := h.users.GetMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": matchView(match)})
}

type joinQueueRequest struct {
	StakeTier int64 `json:"stake_tier" binding:"required"`
}

// JoinQueue enters the caller into the matchmaking queue
func (h *Handler) JoinQueue(c *gin.Context) {
	var req joinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	entry, err := h.matchmaking.JoinQueue(c.Request.Context(), callerID(c), req.StakeTier)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queue_entry": gin.H{
			"stake_tier": entry.StakeTier,
			"status":     entry.Status,
			"joined_at":  entry.JoinedAt,
		},
	})
}

// CancelQueue withdraws the caller from the queue
func (h *Handler) CancelQueue(c *gin.Context) {
	if err := h.matchmaking.CancelQueue(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

type submitResultRequest struct {
	ClaimedStatus string `json:"claimed_status" binding:"required"`
	ScreenshotKey string `json:"screenshot_key" binding:"required"`
}

// SubmitResult files the caller's result claim for a match
func (h *Handler) SubmitResult(c *gin.Context) {
	var req submitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	match, err := h.results.SubmitResult(c.Request.Context(), c.Param("id"), callerID(c),
		models.ClaimedStatus(req.ClaimedStatus), req.ScreenshotKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": matchView(match)})
}

type amountRequest struct {
	Amount    int64  `json:"amount" binding:"required"`
	Reference string `json:"reference"`
}

// RequestDeposit files a deposit request for review
func (h *Handler) RequestDeposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	request, err := h.wallet.RequestDeposit(c.Request.Context(), callerID(c), req.Amount, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": requestView(request)})
}

// RequestWithdrawal files a withdrawal and holds the funds
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	request, err := h.wallet.RequestWithdrawal(c.Request.Context(), callerID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": requestView(request)})
}

// ApproveDeposit is the operator review approval for a deposit
func (h *Handler) ApproveDeposit(c *gin.Context) {
	requestID, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.wallet.ApproveDeposit(c.Request.Context(), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true})
}

// ApproveWithdrawal finalizes a held withdrawal
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	requestID, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.wallet.ApproveWithdrawal(c.Request.Context(), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true})
}

// RejectWithdrawal refunds a held withdrawal
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	requestID, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.wallet.RejectWithdrawal(c.Request.Context(), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

type declareWinnerRequest struct {
	WinnerID int64 `json:"winner_id" binding:"required"`
}

// DeclareWinner is the operator override for disputed or stuck matches
func (h *Handler) DeclareWinner(c *gin.Context) {
	var req declareWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	match, err := h.results.DeclareWinner(c.Request.Context(), c.Param("id"), req.WinnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": matchView(match)})
}

type cancelMatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelMatch voids a match and refunds entry fees
func (h *Handler) CancelMatch(c *gin.Context) {
	var req cancelMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	match, err := h.results.CancelMatch(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": matchView(match)})
}

type adjustRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
	Note   string `json:"note"`
}

// AdjustBalance applies a manual operator correction
func (h *Handler) AdjustBalance(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	if err := h.wallet.AdminAdjust(c.Request.Context(), req.UserID, req.Amount, req.Note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjusted": true})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, service.ErrValidation
	}
	return id, nil
}

func userView(user *models.User) gin.H {
	if user == nil {
		return nil
	}
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"wallet_balance": user.WalletBalance,
		"matches_played": user.MatchesPlayed,
		"matches_won":    user.MatchesWon,
		"rating":         user.Rating,
	}
}

func matchView(match *models.Match) gin.H {
	if match == nil {
		return nil
	}
	return gin.H{
		"id":                match.ID,
		"stake_tier":        match.StakeTier,
		"entry_pot":         match.EntryPot,
		"prize_pool":        match.PrizePool,
		"player_one_id":     match.PlayerOneID,
		"player_two_id":     match.PlayerTwoID,
		"status":            match.Status,
		"status_reason":     match.StatusReason,
		"winner_id":         match.WinnerID,
		"prize_distributed": match.PrizeDistributed,
	}
}

func ledgerView(entries []*models.LedgerEntry) []gin.H {
	views := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		views = append(views, gin.H{
			"id":         entry.ID,
			"amount":     entry.Amount,
			"kind":       entry.Kind,
			"status":     entry.Status,
			"match_id":   entry.MatchID,
			"created_at": entry.CreatedAt,
		})
	}
	return views
}

func requestView(request *models.PaymentRequest) gin.H {
	return gin.H{
		"id":     request.ID,
		"kind":   request.Kind,
		"amount": request.Amount,
		"status": request.Status,
	}
}
