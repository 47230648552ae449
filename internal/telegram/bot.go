package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/config"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/flow"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/moderation"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/repository"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/social"
)

// PostEnqueuer triggers a targeted metrics fetch for a fresh post.
type PostEnqueuer interface {
	EnqueuePost(ctx context.Context, postID string) (string, error)
}

// Bot is the campaign's chat surface: long polling only, one goroutine
// per video request, read commands answered inline.
type Bot struct {
	api      *tgbotapi.BotAPI
	pipeline *flow.Pipeline
	creators *repository.CreatorRepository
	jobs     *repository.JobRepository
	posts    *repository.PostRepository
	refresh  PostEnqueuer
	campaign config.CampaignConfig
	timeout  int
	log      zerolog.Logger
	wg       sync.WaitGroup
}

type BotParams struct {
	Token    string
	Timeout  int
	Pipeline *flow.Pipeline
	Creators *repository.CreatorRepository
	Jobs     *repository.JobRepository
	Posts    *repository.PostRepository
	Refresh  PostEnqueuer
	Campaign config.CampaignConfig
	Logger   zerolog.Logger
}

func NewBot(p BotParams) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(p.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 60
	}

	return &Bot{
		api:      api,
		pipeline: p.Pipeline,
		creators: p.Creators,
		jobs:     p.Jobs,
		posts:    p.Posts,
		refresh:  p.Refresh,
		campaign: p.Campaign,
		timeout:  timeout,
		log:      p.Logger,
	}, nil
}

// Run consumes updates until the context is cancelled, then waits for
// in-flight video requests to finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Str("bot", b.api.Self.UserName).Msg("telegram long polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.reply(msg.Chat.ID, welcomeMessage)
	case "create":
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handleCreate(ctx, msg)
		}()
	case "posted":
		b.handlePosted(ctx, msg)
	case "myvideos":
		b.handleMyVideos(ctx, msg)
	case "leaderboard":
		b.handleLeaderboard(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	case "categories":
		b.handleCategories(msg)
	case "examples":
		b.reply(msg.Chat.ID, examplesMessage)
	case "rules":
		b.reply(msg.Chat.ID, rulesMessage)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.creators.GetOrCreate(ctx, msg.From.ID, msg.From.UserName, displayName(msg.From)); err != nil {
		b.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Msg("creator upsert on /start failed")
	}
	b.reply(msg.Chat.ID, welcomeMessage)
}

func (b *Bot) handleCreate(ctx context.Context, msg *tgbotapi.Message) {
	prompt := strings.TrimSpace(msg.CommandArguments())
	if prompt == "" {
		b.reply(msg.Chat.ID, createUsageMessage)
		return
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, generatingMessage))
	if err != nil {
		b.log.Error().Err(err).Msg("send processing message failed")
	}

	notify := func(text string) {
		if status.MessageID == 0 {
			return
		}
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, status.MessageID, text)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Debug().Err(err).Msg("progress edit failed")
		}
	}

	outcome := b.pipeline.CreateVideo(ctx, flow.Request{
		TGUserID:    msg.From.ID,
		Username:    msg.From.UserName,
		DisplayName: displayName(msg.From),
		Prompt:      prompt,
		Notify:      notify,
	})

	b.deliverOutcome(ctx, msg, outcome)
}

func (b *Bot) deliverOutcome(ctx context.Context, msg *tgbotapi.Message, outcome flow.Outcome) {
	switch outcome.Kind {
	case flow.OutcomeSuccess:
		b.deliverVideo(msg.Chat.ID, outcome.Job)

	case flow.OutcomeRejected:
		b.applyStrike(ctx, msg.Chat.ID, msg.From.ID)
		text := fmt.Sprintf("❌ *Contenido no aprobado*\n\n%s\n", outcome.Message)
		if outcome.Validation != nil && len(outcome.Validation.Suggestions) > 0 {
			text += "\n💡 *Sugerencias:*\n"
			for i, s := range outcome.Validation.Suggestions {
				text += fmt.Sprintf("%d. _%s_\n", i+1, s)
			}
		}
		text += "\n📜 Revisa /rules y /examples"
		b.reply(msg.Chat.ID, text)

	case flow.OutcomeBlocked:
		b.reply(msg.Chat.ID, fmt.Sprintf("🚫 %s", outcome.Message))

	case flow.OutcomeDuplicate:
		text := "⚠️ *Ya pediste este video*\n\nTu solicitud anterior sigue en curso, espera a que termine."
		if outcome.DuplicateJob != nil && outcome.DuplicateJob.Status == models.JobStatusReady {
			text = "⚠️ *Ya generaste este video hoy*\n\nRevisa /myvideos o cambia tu prompt."
		}
		b.reply(msg.Chat.ID, text)

	case flow.OutcomeTimeout:
		b.reply(msg.Chat.ID, "⏰ *La generación tardó demasiado*\n\nEl trabajo fue cancelado. Intenta de nuevo en unos minutos.")

	case flow.OutcomeUnavailable:
		b.reply(msg.Chat.ID, "🔌 *Servicio de video no disponible*\n\nIntenta de nuevo más tarde.")

	default:
		b.reply(msg.Chat.ID, "😵 Algo salió mal de nuestro lado. Intenta de nuevo.")
	}
}

func (b *Bot) deliverVideo(chatID int64, job *models.VideoJob) {
	if job == nil || job.VideoURL == nil {
		b.reply(chatID, "✅ Tu video está listo, pero no pude adjuntarlo. Revisa /myvideos.")
		return
	}

	caption := job.Caption
	if job.Hashtags != "" {
		caption = caption + "\n\n" + job.Hashtags
	}
	caption += "\n\n📲 Publícalo y regístralo con /posted [url]"

	video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(*job.VideoURL))
	video.Caption = caption
	if _, err := b.api.Send(video); err != nil {
		b.log.Warn().Err(err).Str("job_id", job.ID).Msg("video attachment failed, sending link")
		b.reply(chatID, fmt.Sprintf("✅ *¡Tu video está listo!*\n\n🎬 %s\n\n%s", *job.VideoURL, caption))
	}
}

// applyStrike counts a rejection; hitting the limit starts a cooldown
// and resets the count.
func (b *Bot) applyStrike(ctx context.Context, chatID, tgUserID int64) {
	creator, err := b.creators.GetByID(ctx, tgUserID)
	if err != nil {
		b.log.Error().Err(err).Int64("tg_user_id", tgUserID).Msg("load creator for strike failed")
		return
	}

	strikes := creator.Strikes + 1
	if b.campaign.MaxStrikes > 0 && strikes >= b.campaign.MaxStrikes {
		until := time.Now().Add(time.Duration(b.campaign.CooldownHours) * time.Hour)
		if err := b.creators.SetCooldown(ctx, tgUserID, until); err != nil {
			b.log.Error().Err(err).Int64("tg_user_id", tgUserID).Msg("set cooldown failed")
			return
		}
		if err := b.creators.SetStrikes(ctx, tgUserID, 0); err != nil {
			b.log.Error().Err(err).Int64("tg_user_id", tgUserID).Msg("reset strikes failed")
		}
		b.reply(chatID, fmt.Sprintf("🧊 Acumulaste %d strikes. Enfriamiento hasta %s.",
			b.campaign.MaxStrikes, until.Format("02/01/2006 15:04")))
		return
	}

	if err := b.creators.SetStrikes(ctx, tgUserID, strikes); err != nil {
		b.log.Error().Err(err).Int64("tg_user_id", tgUserID).Msg("set strikes failed")
	}
}

func (b *Bot) handlePosted(ctx context.Context, msg *tgbotapi.Message) {
	rawURL := strings.TrimSpace(msg.CommandArguments())
	if rawURL == "" {
		b.reply(msg.Chat.ID, postedUsageMessage)
		return
	}

	platform, platformPostID, err := social.Parse(rawURL)
	if err != nil {
		b.reply(msg.Chat.ID, invalidURLMessage)
		return
	}

	jobs, err := b.jobs.ListByCreator(ctx, msg.From.ID, 10)
	if err != nil {
		b.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Msg("list creator jobs failed")
		b.reply(msg.Chat.ID, "😵 No pude consultar tus videos, intenta de nuevo.")
		return
	}

	var target *models.VideoJob
	for i := range jobs {
		if jobs[i].Status == models.JobStatusReady {
			target = &jobs[i]
			break
		}
	}
	if target == nil {
		b.reply(msg.Chat.ID, noVideosMessage)
		return
	}

	post, err := b.posts.Create(ctx, target.ID, msg.From.ID, platform, rawURL, platformPostID)
	if err != nil {
		if errors.Is(err, repository.ErrPostExists) {
			b.reply(msg.Chat.ID, postExistsMessage)
			return
		}
		b.log.Error().Err(err).Str("job_id", target.ID).Msg("register post failed")
		b.reply(msg.Chat.ID, "😵 No pude registrar tu publicación, intenta de nuevo.")
		return
	}

	if _, err := b.refresh.EnqueuePost(ctx, post.ID); err != nil {
		b.log.Error().Err(err).Str("post_id", post.ID).Msg("enqueue post refresh failed")
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"✅ *¡Publicación registrada!*\n\n🌐 Plataforma: %s\n🎬 Video: %s\n\n📊 Las métricas se actualizan automáticamente. Revisa /leaderboard.",
		strings.ToUpper(string(platform)), truncate(target.Prompt, 60)))
}

func (b *Bot) handleMyVideos(ctx context.Context, msg *tgbotapi.Message) {
	jobs, err := b.jobs.ListByCreator(ctx, msg.From.ID, 10)
	if err != nil {
		b.log.Error().Err(err).Int64("tg_user_id", msg.From.ID).Msg("list creator jobs failed")
		b.reply(msg.Chat.ID, "😵 No pude consultar tus videos.")
		return
	}
	if len(jobs) == 0 {
		b.reply(msg.Chat.ID, noVideosMessage)
		return
	}

	var sb strings.Builder
	sb.WriteString("🎬 *Tus videos:*\n\n")
	for i, job := range jobs {
		icon := "⏳"
		switch job.Status {
		case models.JobStatusReady:
			icon = "✅"
		case models.JobStatusFailed:
			icon = "❌"
		}
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, icon, truncate(job.Prompt, 60))
		if job.Status == models.JobStatusReady && job.VideoURL != nil {
			fmt.Fprintf(&sb, "   🔗 %s\n", *job.VideoURL)
		}
	}
	sb.WriteString("\n📲 Registra tus publicaciones con /posted [url]")
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	creators, err := b.creators.Leaderboard(ctx, 10)
	if err != nil {
		b.log.Error().Err(err).Msg("leaderboard query failed")
		b.reply(msg.Chat.ID, "😵 No pude consultar la clasificación.")
		return
	}
	if len(creators) == 0 {
		b.reply(msg.Chat.ID, "🏆 Aún no hay creadores en la clasificación. ¡Sé el primero con /create!")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏆 *Clasificación ETH Creators*\n\n")
	for i, creator := range creators {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		name := creator.DisplayName
		if name == "" {
			name = creator.Username
		}
		fmt.Fprintf(&sb, "%s *%s* — %d vistas, %d videos\n", rank, name, creator.TotalViews, creator.TotalVideos)
	}
	sb.WriteString("\n📈 Más vistas = más recompensas")
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	totals, err := b.posts.Totals(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("campaign totals query failed")
		b.reply(msg.Chat.ID, "😵 No pude consultar las estadísticas.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"📊 *Estadísticas de la campaña*\n\n👥 Creadores: %d\n🎬 Videos listos: %d\n📱 Publicaciones: %d\n👀 Vistas totales: %d\n❤️ Interacciones: %d",
		totals.Creators, totals.ReadyVideos, totals.Posts, totals.Views, totals.Engagements))
}

func (b *Bot) handleCategories(msg *tgbotapi.Message) {
	var sb strings.Builder
	sb.WriteString("🗂 *Temas aprobados:*\n\n")
	for _, name := range moderation.CategoryNames() {
		fmt.Fprintf(&sb, "• %s\n", strings.ReplaceAll(name, "_", " "))
	}
	sb.WriteString("\nTu prompt se clasifica automáticamente. Usa /examples para inspiración.")
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

func displayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
