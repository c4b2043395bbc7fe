package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/radioafrica/internal/config"
	"github.com/radioafrica/internal/service"
	"github.com/radioafrica/internal/store"
)

const seedVisitorCount = 25

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatal("存储初始化失败:", err)
	}
	defer st.Close()

	fmt.Printf("开始向 %s 生成测试数据...\n", st.Name())

	created, err := createTestPosts(ctx, service.NewBlogService(st))
	if err != nil {
		log.Fatal("创建文章失败:", err)
	}

	tracker := service.NewPresenceTracker(st, st).WithMode(cfg.FirstSeenMode)
	if err := simulateHeartbeats(ctx, tracker, seedVisitorCount); err != nil {
		log.Fatal("模拟心跳失败:", err)
	}

	stats, err := service.NewStatsAggregator(st, st).GetStats(ctx, cfg.StatsWindow)
	if err != nil {
		log.Fatal("读取统计失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("文章: 新增 %d 篇\n", created)
	fmt.Printf("访客: 在线 %d，累计 %d\n", stats.Active, stats.Total)
}

type seedPost struct {
	title   string
	content string
	author  string
	tags    []string
	cover   string
	age     time.Duration
}

var seedPosts = []seedPost{
	{
		title:   "Highlife: the sound that built West African radio",
		content: "## From Accra dance halls to the airwaves\n\nHighlife blended **palm-wine guitar** with brass band arrangements and became the first pan-African pop sound.",
		author:  "Ama Owusu",
		tags:    []string{"music", "history", "ghana"},
		cover:   "https://images.unsplash.com/photo-1511379938547-c1f69419868d?auto=format&fit=crop&w=1600&q=80",
		age:     72 * time.Hour,
	},
	{
		title:   "Community radio and the 2024 harvest season",
		content: "Farmers in the Rift Valley tune in at dawn for market prices and weather.\n\n- maize prices\n- rainfall outlook\n- call-in advice",
		author:  "Wanjiru Kamau",
		tags:    []string{"news", "kenya"},
		age:     48 * time.Hour,
	},
	{
		title:   "Amapiano after midnight",
		content: "Log drums, soft keys and long transitions: why the late show belongs to **amapiano**.",
		author:  "Thabo Nkosi",
		tags:    []string{"music", "south-africa"},
		cover:   "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?auto=format&fit=crop&w=1600&q=80",
		age:     24 * time.Hour,
	},
	{
		title:   "Stories from the griots",
		content: "> A griot is a library that walks.\n\nThis week we open the archive of Mandinka oral histories recorded for the station.",
		author:  "Mariama Diallo",
		tags:    []string{"stories", "culture"},
		age:     6 * time.Hour,
	},
}

// createTestPosts 只在文章列表为空时写入示例文章。
func createTestPosts(ctx context.Context, blogs *service.BlogService) (int, error) {
	existing, err := blogs.List(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		fmt.Println("文章已存在，跳过创建")
		return 0, nil
	}

	now := time.Now().UTC()
	for _, p := range seedPosts {
		publishedAt := now.Add(-p.age)
		input := service.BlogInput{
			Title:       p.title,
			Content:     p.content,
			Author:      p.author,
			Tags:        p.tags,
			PublishedAt: &publishedAt,
		}
		if p.cover != "" {
			cover := p.cover
			input.CoverImage = &cover
		}
		if _, err := blogs.Create(ctx, input); err != nil {
			return 0, err
		}
	}

	fmt.Println("✅ 示例文章创建完成")
	return len(seedPosts), nil
}

// simulateHeartbeats 为 n 个新访客各发送两次心跳。
func simulateHeartbeats(ctx context.Context, tracker *service.PresenceTracker, n int) error {
	for i := 0; i < n; i++ {
		visitorID := uuid.NewString()
		for j := 0; j < 2; j++ {
			if err := tracker.RecordHeartbeat(ctx, visitorID); err != nil {
				return err
			}
		}
	}

	fmt.Printf("✅ 已模拟 %d 位访客的心跳\n", n)
	return nil
}
