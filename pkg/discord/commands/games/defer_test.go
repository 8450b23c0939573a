package games

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/dwarflabs/dwarfbot/pkg/discord/audit"
	"github.com/dwarflabs/dwarfbot/pkg/discord/commands/core"
	"github.com/dwarflabs/dwarfbot/pkg/gameroles"
	"github.com/dwarflabs/dwarfbot/pkg/store"
)

// recordedRequest is one REST call the bot attempted.
type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// recordingTransport intercepts every REST call and answers from a canned
// path-suffix response table, so handlers can run without a gateway.
type recordingTransport struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]string // path suffix -> JSON body
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}

	rt.mu.Lock()
	rt.requests = append(rt.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Body:   body,
	})
	rt.mu.Unlock()

	for suffix, reply := range rt.responses {
		if strings.HasSuffix(req.URL.Path, suffix) {
			return jsonResponse(200, reply), nil
		}
	}
	return jsonResponse(204, ""), nil
}

func (rt *recordingTransport) recorded() []recordedRequest {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]recordedRequest, len(rt.requests))
	copy(out, rt.requests)
	return out
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// stubPlatform satisfies the engine's platform contract without REST.
type stubPlatform struct {
	roles       []gameroles.Role
	memberRoles []string
}

func (p *stubPlatform) Channel(channelID string) (gameroles.Channel, error) {
	return gameroles.Channel{ID: channelID}, nil
}
func (p *stubPlatform) GuildTextChannels(guildID string) ([]gameroles.Channel, error) {
	return nil, nil
}
func (p *stubPlatform) GuildRoles(guildID string) ([]gameroles.Role, error) { return p.roles, nil }
func (p *stubPlatform) RecentMessages(channelID string, limit int) ([]gameroles.Message, error) {
	return nil, nil
}
func (p *stubPlatform) SendIntro(channelID string) error                        { return nil }
func (p *stubPlatform) SendMenu(channelID string, o []gameroles.MenuOption) error { return nil }
func (p *stubPlatform) EditMenu(channelID, messageID string, o []gameroles.MenuOption) error {
	return nil
}
func (p *stubPlatform) DeleteMessage(channelID, messageID string) error { return nil }
func (p *stubPlatform) MemberRoleIDs(guildID, userID string) ([]string, error) {
	return p.memberRoles, nil
}
func (p *stubPlatform) AddMemberRole(guildID, userID, roleID string) error    { return nil }
func (p *stubPlatform) RemoveMemberRole(guildID, userID, roleID string) error { return nil }

type handlerFixture struct {
	session   *discordgo.Session
	transport *recordingTransport
	service   *gameroles.Service
	actions   *audit.ActionLogger
	router    *core.CommandRouter
}

func newHandlerFixture(t *testing.T, platform *stubPlatform, responses map[string]string) *handlerFixture {
	t.Helper()

	session, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("discordgo.New: %v", err)
	}
	transport := &recordingTransport{responses: responses}
	session.Client = &http.Client{Transport: transport}

	dir := t.TempDir()
	channels := store.NewChannelStore(filepath.Join(dir, "channels.json"))
	if err := channels.Load(); err != nil {
		t.Fatalf("load channels: %v", err)
	}
	guilds := store.NewGuildStore(filepath.Join(dir, "guilds.json"))
	if err := guilds.Load(); err != nil {
		t.Fatalf("load guilds: %v", err)
	}

	return &handlerFixture{
		session:   session,
		transport: transport,
		service:   gameroles.NewService(platform, channels, guilds),
		actions:   audit.NewActionLogger(session, guilds, nil, "", ""),
		router:    core.NewCommandRouter(session),
	}
}

func (f *handlerFixture) context(i *discordgo.InteractionCreate) *core.Context {
	return &core.Context{
		Session:     f.session,
		Interaction: i,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		GuildID:     "g1",
		UserID:      "u1",
	}
}

func componentInteraction(customID string, values []string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "i1",
		AppID:   "app1",
		Token:   "interaction-token",
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.SelectMenuComponent,
			Values:        values,
		},
	}}
}

func commandInteraction(name string, options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "i1",
		AppID:   "app1",
		Token:   "interaction-token",
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

func assertDeferredFirst(t *testing.T, requests []recordedRequest) {
	t.Helper()
	if len(requests) == 0 {
		t.Fatal("no REST calls recorded")
	}
	first := requests[0]
	if !strings.HasSuffix(first.Path, "/callback") {
		t.Fatalf("first REST call must be the interaction callback, got %s %s", first.Method, first.Path)
	}
	if !strings.Contains(first.Body, `"type":5`) {
		t.Fatalf("first response must be a deferral, body: %s", first.Body)
	}
}

func lastOriginalEdit(t *testing.T, requests []recordedRequest) recordedRequest {
	t.Helper()
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].Method == http.MethodPatch && strings.HasSuffix(requests[i].Path, "/messages/@original") {
			return requests[i]
		}
	}
	t.Fatalf("no edit of the original response recorded: %+v", requests)
	return recordedRequest{}
}

func TestSelectionHandlerDefersBeforeReconciling(t *testing.T) {
	t.Parallel()
	platform := &stubPlatform{roles: []gameroles.Role{{ID: "r1", Name: "Valorant"}}}
	f := newHandlerFixture(t, platform, map[string]string{"/messages/@original": "{}"})

	if err := f.service.Channels.Create(store.AssociationRecord{
		Name: "Valorant", NameSimplified: "valorant",
		ChannelID: "c1", RoleID: "r1", GuildID: "g1",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sh := NewSelectionHandler(f.service, f.actions)
	sh.Register(f.router)

	i := componentInteraction(gameroles.CustomIDSelectMenu, []string{"valorant"})
	if err := sh.handleSelection(f.context(i), gameroles.CustomIDSelectMenu); err != nil {
		t.Fatalf("handleSelection: %v", err)
	}

	requests := f.transport.recorded()
	assertDeferredFirst(t, requests)
	if !strings.Contains(requests[0].Body, `"flags":64`) {
		t.Fatalf("selection acknowledgement must be ephemeral, body: %s", requests[0].Body)
	}
	edit := lastOriginalEdit(t, requests)
	if !strings.Contains(edit.Body, "Valorant") {
		t.Fatalf("summary edit missing the granted role: %s", edit.Body)
	}
}

func TestCheckChannelsDefersBeforeScanning(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t, &stubPlatform{}, map[string]string{
		"/channels/c1":         `{"id":"c1"}`,
		"/messages/@original":  "{}",
	})

	if err := f.service.Channels.Create(store.AssociationRecord{
		Name: "Valorant", NameSimplified: "valorant",
		ChannelID: "c1", RoleID: "r1", GuildID: "g1",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ic := NewInfoCommands(f.service, f.actions, nil)
	ic.RegisterCommands(f.router)

	i := commandInteraction("check", nil)
	if err := ic.handleCheckChannels(f.context(i)); err != nil {
		t.Fatalf("handleCheckChannels: %v", err)
	}

	requests := f.transport.recorded()
	assertDeferredFirst(t, requests)
	// The per-record channel scan must come after the acknowledgement.
	if len(requests) < 2 || !strings.HasSuffix(requests[1].Path, "/channels/c1") {
		t.Fatalf("expected the channel scan after the deferral, got %+v", requests)
	}
	edit := lastOriginalEdit(t, requests)
	if !strings.Contains(edit.Body, "still exist") {
		t.Fatalf("unexpected check reply: %s", edit.Body)
	}
}

func TestDetectDefersBeforeScanning(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t, &stubPlatform{}, map[string]string{"/messages/@original": "{}"})

	gc := NewGameCommands(f.service, f.actions, gameroles.NewConfirmRegistry())
	gc.RegisterCommands(f.router)

	i := commandInteraction("detect", nil)
	if err := gc.handleDetect(f.context(i)); err != nil {
		t.Fatalf("handleDetect: %v", err)
	}

	requests := f.transport.recorded()
	assertDeferredFirst(t, requests)
	edit := lastOriginalEdit(t, requests)
	if !strings.Contains(edit.Body, "No new channel/role pairs") {
		t.Fatalf("unexpected detect reply: %s", edit.Body)
	}
}

func TestCreateDefersBeforeProvisioning(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t, &stubPlatform{}, map[string]string{
		"/guilds/g1/roles":    `{"id":"r1","name":"Valorant"}`,
		"/guilds/g1/channels": `{"id":"c1","type":0}`,
		"/messages/@original": "{}",
	})

	gc := NewGameCommands(f.service, f.actions, gameroles.NewConfirmRegistry())
	gc.RegisterCommands(f.router)

	i := commandInteraction("create", []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "Valorant"},
	})
	if err := gc.handleCreate(f.context(i)); err != nil {
		t.Fatalf("handleCreate: %v", err)
	}

	requests := f.transport.recorded()
	assertDeferredFirst(t, requests)
	if len(requests) < 2 || !strings.HasSuffix(requests[1].Path, "/guilds/g1/roles") {
		t.Fatalf("role creation must come after the deferral, got %+v", requests)
	}
	lastOriginalEdit(t, requests)

	if _, ok := f.service.Channels.ByKey("g1", "valorant"); !ok {
		t.Fatal("created game not stored")
	}
}
