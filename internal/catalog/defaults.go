package catalog

import "github.com/kilupskalvis/folio/internal/models"

// DefaultProjects is shown until the owner saves their own list.
func DefaultProjects() []models.Project {
	return []models.Project{
		{
			ID:              "1",
			Title:           "E-commerce Platform",
			Description:     "Online store with order management, inventory and sales analytics, including a cart, payments and customer accounts.",
			FullDescription: "A complete online sales platform: a filterable product catalog, shopping cart, checkout, payment provider integration and an admin dashboard.",
			Technologies:    []string{"React", "Node.js", "MongoDB", "Express", "Stripe", "Redux"},
			Image:           "assets/images/project1.jpg",
			DemoLink:        "https://demo-ecommerce.example.com",
			GithubLink:      "https://github.com/username/ecommerce-platform",
			Views:           156,
			Category:        "fullstack",
			Featured:        true,
			Status:          "completed",
			Year:            2023,
			Client:          "Retail Company Inc.",
			Challenge:       "Build a platform that scales with a growing business",
			Solution:        "A modular service architecture",
			Results:         "Conversion up 35%, load time down 60%",
		},
		{
			ID:              "2",
			Title:           "Task Management App",
			Description:     "Real-time task manager for teams with collaborative workflow tools.",
			FullDescription: "Boards, timelines, live notifications and calendar integration for distributed teams.",
			Technologies:    []string{"Vue.js", "Firebase", "Vuex", "SCSS", "Chart.js"},
			Image:           "assets/images/project2.jpg",
			DemoLink:        "https://taskmanager.demo.com",
			GithubLink:      "https://github.com/username/task-manager",
			Views:           89,
			Category:        "frontend",
			Featured:        true,
			Status:          "completed",
			Year:            2023,
			Client:          "Startup Team",
			Challenge:       "A convenient tool for remote teams",
			Solution:        "Real-time notifications and synchronization",
			Results:         "Team throughput up 25%",
		},
		{
			ID:              "3",
			Title:           "Weather Dashboard",
			Description:     "Weather forecast dashboard visualizing data from several providers.",
			FullDescription: "Maps, charts and diagrams over multiple weather data sources with accurate forecasts.",
			Technologies:    []string{"React", "Chart.js", "Weather API", "Styled Components", "Leaflet"},
			Image:           "assets/images/project3.jpg",
			DemoLink:        "https://weather-dashboard.demo.com",
			GithubLink:      "https://github.com/username/weather-dashboard",
			Views:           67,
			Category:        "frontend",
			Status:          "completed",
			Year:            2023,
		},
		{
			ID:              "4",
			Title:           "Social Network API",
			Description:     "Backend for a social network with posts, comments, likes and follows.",
			FullDescription: "Posts, comments, likes, follows, direct messages and notifications behind one API.",
			Technologies:    []string{"Node.js", "Express", "MongoDB", "Socket.io", "JWT"},
			Image:           "assets/images/project4.jpg",
			GithubLink:      "https://github.com/username/social-api",
			Views:           45,
			Category:        "backend",
			Status:          "completed",
			Year:            2023,
		},
		{
			ID:              "5",
			Title:           "Mobile Fitness App",
			Description:     "Cross-platform app for tracking workouts, nutrition and progress.",
			FullDescription: "Workout tracking, meal plans, progress charts and social features for motivation.",
			Technologies:    []string{"React Native", "Firebase", "Redux", "Chart.js"},
			Image:           "assets/images/project5.jpg",
			DemoLink:        "https://fitness-app.demo.com",
			Views:           78,
			Category:        "mobile",
			Featured:        true,
			Status:          "in-progress",
			Year:            2024,
		},
		{
			ID:              "6",
			Title:           "Analytics Platform",
			Description:     "Business metrics platform with dashboards and scheduled reports.",
			FullDescription: "Connects many data sources, generates reports automatically and serves interactive dashboards.",
			Technologies:    []string{"React", "D3.js", "Python", "FastAPI", "PostgreSQL"},
			Image:           "assets/images/project6.jpg",
			Views:           34,
			Category:        "fullstack",
			Status:          "completed",
			Year:            2023,
		},
	}
}

// DefaultAchievements is shown until the owner saves their own list.
func DefaultAchievements() []models.Achievement {
	return []models.Achievement{
		{
			ID:           "1",
			Title:        "Best Young Developer 2023",
			Organization: "IT Community Awards",
			Date:         "2023-12-01",
			Description:  "Awarded for innovative web solutions and open-source contributions.",
			Image:        "assets/achievements/award1.jpg",
			Category:     "award",
			Importance:   "high",
			Skills:       []string{"JavaScript", "React", "Open Source"},
			Link:         "https://example.com/award-details",
		},
		{
			ID:           "2",
			Title:        "React Professional Certificate",
			Organization: "Meta",
			Date:         "2023-08-15",
			Description:  "Professional course on React and modern development practices.",
			Image:        "assets/achievements/certificate1.jpg",
			Category:     "certificate",
			Importance:   "medium",
			Skills:       []string{"React", "JavaScript", "Frontend"},
			Link:         "https://coursera.org/verify/REACT123",
		},
	}
}

// DefaultFAQs is shown until the owner saves their own list.
func DefaultFAQs() []models.FAQ {
	return []models.FAQ{
		{ID: "1", Question: "What kinds of projects do you take on?", Answer: "Web applications, from landing pages to full-stack products."},
		{ID: "2", Question: "How long does a typical project take?", Answer: "Between two weeks and three months depending on scope."},
		{ID: "3", Question: "Do you offer support after launch?", Answer: "Yes, every project includes a month of free support."},
	}
}
