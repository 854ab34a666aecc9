package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripgather/tripgather-backend/api/controllers"
	"github.com/tripgather/tripgather-backend/api/middleware"
	"github.com/tripgather/tripgather-backend/internal/auth"
	"github.com/tripgather/tripgather-backend/internal/chats"
	"github.com/tripgather/tripgather-backend/internal/friends"
	"github.com/tripgather/tripgather-backend/internal/groups"
	"github.com/tripgather/tripgather-backend/internal/schedules"
	"github.com/tripgather/tripgather-backend/internal/users"
	"github.com/tripgather/tripgather-backend/internal/votes"
	"github.com/tripgather/tripgather-backend/pkg/auth/session"
	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

// Params carries everything the router hands to controllers.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	// Limiter backs the sign-up and login throttles; nil disables them.
	Limiter middleware.RateLimiterStore

	// Ready lists the dependencies /health/ready pings, keyed by name.
	Ready   map[string]controllers.Pinger
	Metrics http.Handler
	Hub     controllers.SocketHub

	Auth      auth.Service
	Register  auth.RegisterService
	Users     users.Service
	Friends   friends.Service
	Groups    groups.Service
	Chats     chats.Service
	Schedules schedules.Service
	Votes     votes.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	cookies := controllers.CookieSettings{Cookie: cfg.Cookie, JWT: cfg.JWT}
	maxImage := cfg.Media.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignUpWindow,
		cfg.AuthRateLimit.SignUpIPLimit,
		cfg.AuthRateLimit.SignUpEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Ready, logg))
	})
	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signUpPolicy, p.Limiter, logg)).Post("/sign-up", controllers.AuthSignUp(p.Register, p.Auth, cookies, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Limiter, logg)).Post("/login", controllers.AuthLogin(p.Auth, cookies, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cookies, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, cookies, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		if p.Hub != nil {
			r.Get("/ws", controllers.RealtimeConnect(p.Hub, cfg.App.FrontendOrigins, logg))
		}

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(p.Users, logg))
			r.Patch("/me", controllers.UsersUpdateMe(p.Users, logg))
			r.Get("/search", controllers.UsersSearch(p.Users, logg))
		})

		r.Route("/api/friends", func(r chi.Router) {
			r.Get("/", controllers.FriendsList(p.Friends, logg))
			r.Get("/requests", controllers.FriendsPendingRequests(p.Friends, logg))
			r.Post("/{uuid}/request", controllers.FriendsSendRequest(p.Friends, logg))
			r.Patch("/{uuid}/accept", controllers.FriendsAccept(p.Friends, logg))
			r.Post("/{uuid}/accept", controllers.FriendsAccept(p.Friends, logg))
			r.Patch("/{uuid}/reject", controllers.FriendsReject(p.Friends, logg))
			r.Delete("/{uuid}", controllers.FriendsRemove(p.Friends, logg))
		})

		r.Route("/api/groups", func(r chi.Router) {
			r.Post("/", controllers.GroupsCreate(p.Groups, maxImage, logg))
			r.Get("/", controllers.GroupsListMine(p.Groups, logg))
			r.Get("/public", controllers.GroupsListPublic(p.Groups, logg))
			r.Get("/invites", controllers.GroupsListInvites(p.Groups, logg))
			r.Patch("/invites/{uuid}", controllers.GroupsRespondInvite(p.Groups, logg))
			r.Route("/{uuid}", func(r chi.Router) {
				r.Get("/", controllers.GroupsGet(p.Groups, logg))
				r.Put("/images", controllers.GroupsUploadImages(p.Groups, maxImage, logg))
				r.Post("/join", controllers.GroupsJoin(p.Groups, logg))
				r.Post("/leave", controllers.GroupsLeave(p.Groups, logg))
				r.Post("/invites", controllers.GroupsInvite(p.Groups, logg))
				r.Get("/announcements", controllers.GroupsListAnnouncements(p.Groups, logg))
				r.Post("/announcements", controllers.GroupsCreateAnnouncement(p.Groups, logg))
				r.Get("/schedules", controllers.SchedulesListGroup(p.Schedules, logg))
				r.Get("/votes", controllers.VotesListGroup(p.Votes, logg))
			})
		})

		r.Route("/api/chats", func(r chi.Router) {
			r.Get("/", controllers.ChatsListRooms(p.Chats, logg))
			r.Post("/dm", controllers.ChatsGetOrCreateDM(p.Chats, logg))
			r.Get("/{roomUuid}/messages", controllers.ChatsListMessages(p.Chats, logg))
			r.Post("/{roomUuid}/messages", controllers.ChatsSendMessage(p.Chats, logg))
			r.Delete("/{roomUuid}", controllers.ChatsLeaveRoom(p.Chats, logg))
		})

		r.Route("/api/schedules", func(r chi.Router) {
			r.Get("/", controllers.SchedulesListMine(p.Schedules, logg))
			r.Post("/", controllers.SchedulesCreate(p.Schedules, logg))
			r.Post("/{uuid}/join", controllers.SchedulesJoin(p.Schedules, logg))
			r.Post("/{uuid}/leave", controllers.SchedulesLeave(p.Schedules, logg))
		})

		r.Route("/api/votes", func(r chi.Router) {
			r.Post("/", controllers.VotesCreate(p.Votes, logg))
			r.Get("/{voteUuid}", controllers.VotesGet(p.Votes, logg))
			r.Post("/{voteUuid}/participate", controllers.VotesParticipate(p.Votes, logg))
		})
	})

	return r
}
