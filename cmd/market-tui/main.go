package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	gorillaWS "github.com/gorilla/websocket"
)

const pollInterval = 2 * time.Second

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	soldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type listingRow struct {
	ID            string  `json:"id"`
	AssetID       string  `json:"asset_id"`
	Seller        string  `json:"seller"`
	Kind          string  `json:"kind"`
	Price         string  `json:"price"`
	ExpiresAt     *int64  `json:"expires_at"`
	HighestBid    *string `json:"highest_bid"`
	HighestBidder *string `json:"highest_bidder"`
}

type saleRow struct {
	ID        string `json:"id"`
	AssetID   string `json:"asset_id"`
	Seller    string `json:"seller"`
	Buyer     string `json:"buyer"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

type listingsMsg []listingRow
type saleMsg saleRow
type errMsg error
type tickMsg time.Time

type model struct {
	client  *resty.Client
	baseURL string

	listings []listingRow
	sales    []saleRow // 最近成交（新在前）
	lastErr  error

	saleCh chan saleRow
}

func newModel(baseURL string) *model {
	return &model{
		client:  resty.New().SetBaseURL(baseURL).SetTimeout(5 * time.Second),
		baseURL: baseURL,
		saleCh:  make(chan saleRow, 16),
	}
}

// fetchListings 拉取活跃挂单
func (m *model) fetchListings() tea.Msg {
	var out struct {
		Listings []listingRow `json:"listings"`
	}
	resp, err := m.client.R().SetResult(&out).Get("/api/listings")
	if err != nil {
		return errMsg(err)
	}
	if resp.IsError() {
		return errMsg(fmt.Errorf("server returned %d", resp.StatusCode()))
	}
	return listingsMsg(out.Listings)
}

// followSales 连接成交事件流，把事件写入 saleCh
func (m *model) followSales() {
	wsURL, err := toWebsocketURL(m.baseURL)
	if err != nil {
		return
	}
	for {
		conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			time.Sleep(2 * time.Second)
			continue
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var ev struct {
				Type string  `json:"type"`
				Sale saleRow `json:"sale"`
			}
			if err := json.Unmarshal(data, &ev); err != nil || ev.Type != "sale" {
				continue
			}
			select {
			case m.saleCh <- ev.Sale:
			default:
			}
		}
		_ = conn.Close()
		time.Sleep(2 * time.Second)
	}
}

func toWebsocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/sales"
	return u.String(), nil
}

func (m *model) waitForSale() tea.Cmd {
	return func() tea.Msg {
		return saleMsg(<-m.saleCh)
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	go m.followSales()
	return tea.Batch(m.fetchListings, m.waitForSale(), tick())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.fetchListings, tick())
	case listingsMsg:
		m.listings = msg
		m.lastErr = nil
	case saleMsg:
		m.sales = append([]saleRow{saleRow(msg)}, m.sales...)
		if len(m.sales) > 10 {
			m.sales = m.sales[:10]
		}
		return m, m.waitForSale()
	case errMsg:
		m.lastErr = msg
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("gemmarket"))
	b.WriteString(dimStyle.Render("  " + m.baseURL + "  (q 退出)"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-10s %-12s %-12s %10s %12s %-12s",
		"LISTING", "ASSET", "SELLER", "KIND", "PRICE", "BID", "BIDDER")))
	b.WriteString("\n")
	if len(m.listings) == 0 {
		b.WriteString(dimStyle.Render("  (没有活跃挂单)"))
		b.WriteString("\n")
	}
	for _, l := range m.listings {
		bid, bidder := "-", "-"
		if l.HighestBid != nil {
			bid = *l.HighestBid
		}
		if l.HighestBidder != nil {
			bidder = *l.HighestBidder
		}
		b.WriteString(fmt.Sprintf("%-12s %-10s %-12s %-12s %10s %12s %-12s\n",
			l.ID, l.AssetID, l.Seller, l.Kind, l.Price, bid, bidder))
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("最近成交"))
	b.WriteString("\n")
	if len(m.sales) == 0 {
		b.WriteString(dimStyle.Render("  (暂无)"))
		b.WriteString("\n")
	}
	for _, s := range m.sales {
		b.WriteString(soldStyle.Render(fmt.Sprintf("  %s  %s  %s -> %s  @ %s",
			s.ID, s.AssetID, s.Seller, s.Buyer, s.Price)))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("错误: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func main() {
	var baseURL = flag.String("server", envOr("GEMMARKET_SERVER", "http://127.0.0.1:8080"), "marketd base URL")
	flag.Parse()

	p := tea.NewProgram(newModel(*baseURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui exited: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
