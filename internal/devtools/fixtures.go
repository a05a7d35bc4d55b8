package devtools

import (
	"time"

	"blindspot/internal/api"
)

// Canned data only. The fixture backend never computes analytics; every
// analysis, verdict, and blind-spot bucket below is scripted.

var fixtureProblems = []api.ProblemDetail{
	{
		ID:         "prob-two-sum",
		Title:      "Two Sum II",
		Difficulty: "easy",
		BodyMD: "Given a **sorted** array of integers and a target, return the indices of the\n" +
			"two numbers that add up to the target.\n\n" +
			"Each input has exactly one solution and you may not reuse an element.",
		Constraints:  []string{"2 <= len(nums) <= 3 * 10^4", "nums is sorted ascending", "exactly one valid answer"},
		LeetCodeSlug: "two-sum-ii-input-array-is-sorted",
		ExternalURL:  "https://leetcode.com/problems/two-sum-ii-input-array-is-sorted/",
	},
	{
		ID:         "prob-longest-substring",
		Title:      "Longest Substring Without Repeating Characters",
		Difficulty: "medium",
		BodyMD: "Given a string `s`, find the length of the longest substring without\n" +
			"repeating characters.",
		Constraints:  []string{"0 <= len(s) <= 5 * 10^4", "s consists of ASCII characters"},
		LeetCodeSlug: "longest-substring-without-repeating-characters",
		ExternalURL:  "https://leetcode.com/problems/longest-substring-without-repeating-characters/",
	},
	{
		ID:         "prob-linked-cycle",
		Title:      "Linked List Cycle II",
		Difficulty: "medium",
		BodyMD: "Given the head of a linked list, return the node where a cycle begins,\n" +
			"or `null` if there is no cycle. Do not modify the list.",
		Constraints:  []string{"0 <= number of nodes <= 10^4", "O(1) memory preferred"},
		LeetCodeSlug: "linked-list-cycle-ii",
		ExternalURL:  "https://leetcode.com/problems/linked-list-cycle-ii/",
	},
	{
		ID:         "prob-meeting-rooms",
		Title:      "Meeting Rooms II",
		Difficulty: "medium",
		BodyMD: "Given an array of meeting time intervals, return the minimum number of\n" +
			"conference rooms required so no two overlapping meetings share a room.",
		Constraints:  []string{"1 <= len(intervals) <= 10^4", "0 <= start < end <= 10^6"},
		LeetCodeSlug: "meeting-rooms-ii",
		ExternalURL:  "https://leetcode.com/problems/meeting-rooms-ii/",
	},
	{
		ID:         "prob-course-schedule",
		Title:      "Course Schedule",
		Difficulty: "medium",
		BodyMD: "There are `numCourses` courses labeled from 0. Given a list of\n" +
			"prerequisite pairs, determine whether you can finish all courses.",
		Constraints:  []string{"1 <= numCourses <= 2000", "prerequisites may contain cycles"},
		LeetCodeSlug: "course-schedule",
		ExternalURL:  "https://leetcode.com/problems/course-schedule/",
	},
	{
		ID:         "prob-coin-change",
		Title:      "Coin Change",
		Difficulty: "hard",
		BodyMD: "Given coins of different denominations and a total amount, return the\n" +
			"fewest number of coins needed to make up that amount, or -1 if impossible.",
		Constraints:  []string{"1 <= len(coins) <= 12", "1 <= amount <= 10^4"},
		LeetCodeSlug: "coin-change",
		ExternalURL:  "https://leetcode.com/problems/coin-change/",
	},
}

var fixtureAnalyses = map[string]api.Analysis{
	"prob-two-sum": {
		ProblemID: "prob-two-sum",
		Patterns: []api.PatternRef{
			{ID: "two_pointers", Name: "Two Pointers", Primary: true},
			{ID: "modified_binary_search", Name: "Modified Binary Search"},
		},
		KeyInsight: "Sorted input means the pair sum moves monotonically as either pointer moves, so the search space shrinks by one element per comparison.",
		Traps: []string{
			"Reaching for a hash map out of habit wastes the sortedness and the O(1) space bonus.",
			"Binary searching each complement works but costs an extra log factor.",
		},
		ApproachMD: "Start pointers at both ends. Sum too small: advance the left pointer. Too large: retreat the right. The invariant is that discarded elements can never be part of the answer.",
	},
	"prob-longest-substring": {
		ProblemID: "prob-longest-substring",
		Patterns: []api.PatternRef{
			{ID: "sliding_window", Name: "Sliding Window", Primary: true},
		},
		KeyInsight: "The window stays valid by evicting from the left exactly until the duplicate character leaves, never rebuilding from scratch.",
		Traps: []string{
			"Resetting the window to a single character on every duplicate turns the pass quadratic.",
			"Tracking counts instead of last-seen indices makes the eviction loop easy to get wrong.",
		},
		ApproachMD: "Keep last-seen index per character. On a repeat inside the window, jump the left edge past the previous occurrence and keep extending the right edge.",
	},
	"prob-linked-cycle": {
		ProblemID: "prob-linked-cycle",
		Patterns: []api.PatternRef{
			{ID: "fast_slow_pointers", Name: "Fast & Slow Pointers", Primary: true},
		},
		KeyInsight: "After the pointers meet, restarting one pointer from the head and walking both at equal speed meets exactly at the cycle entrance.",
		Traps: []string{
			"A visited-set answer is correct but concedes the O(1) space follow-up.",
			"Off-by-one in the meeting loop when the cycle starts at the head.",
		},
		ApproachMD: "Phase one: fast moves two, slow moves one, until they meet or fast hits null. Phase two: reset one to head; the next meeting point is the entrance.",
	},
	"prob-meeting-rooms": {
		ProblemID: "prob-meeting-rooms",
		Patterns: []api.PatternRef{
			{ID: "merge_intervals", Name: "Merge Intervals", Primary: true},
			{ID: "two_heaps", Name: "Two Heaps"},
		},
		KeyInsight: "Room count is the maximum number of intervals alive at once, which falls out of sweeping sorted start and end events independently.",
		Traps: []string{
			"Merging overlaps loses information: two overlapping meetings need two rooms, not one merged interval.",
			"Forgetting that a meeting ending exactly when another starts frees its room.",
		},
		ApproachMD: "Sort starts and ends separately. Walk starts; each start before the smallest end opens a room, otherwise it reuses one. A min-heap of end times reads the same sweep.",
	},
	"prob-course-schedule": {
		ProblemID: "prob-course-schedule",
		Patterns: []api.PatternRef{
			{ID: "topological_sort", Name: "Topological Sort", Primary: true},
			{ID: "dfs", Name: "Depth-First Search"},
		},
		KeyInsight: "Finishing all courses is possible exactly when the prerequisite graph has no cycle, which Kahn's peeling detects by counting processed nodes.",
		Traps: []string{
			"DFS coloring works but the three-state bookkeeping invites bugs under pressure.",
			"Building the adjacency list backwards flips the edge direction silently.",
		},
		ApproachMD: "Build in-degrees, queue every zero, pop and decrement neighbors. Processed count short of the course count means a cycle.",
	},
	"prob-coin-change": {
		ProblemID: "prob-coin-change",
		Patterns: []api.PatternRef{
			{ID: "dynamic_programming", Name: "Dynamic Programming", Primary: true},
			{ID: "bfs", Name: "Breadth-First Search"},
		},
		KeyInsight: "Fewest coins for an amount depends only on fewest coins for smaller amounts, a one-dimensional table filled left to right.",
		Traps: []string{
			"Greedy by largest coin fails on denominations like {1, 3, 4}.",
			"Initializing the table with zero instead of infinity makes unreachable amounts look solvable.",
		},
		ApproachMD: "dp[0] = 0, dp[a] = 1 + min over coins of dp[a-coin]. BFS over amounts gives the same answer when the table intuition has not clicked yet.",
	},
}

var fixturePatterns = []api.PatternInfo{
	{ID: "two_pointers", Name: "Two Pointers", Category: "arrays_and_strings", Summary: "Converging indices over sorted or partitioned data."},
	{ID: "sliding_window", Name: "Sliding Window", Category: "arrays_and_strings", Summary: "Incrementally maintained contiguous window."},
	{ID: "fast_slow_pointers", Name: "Fast & Slow Pointers", Category: "linked_lists", Summary: "Different-speed walkers exposing cycles and midpoints."},
	{ID: "merge_intervals", Name: "Merge Intervals", Category: "sorting", Summary: "Sort by start, sweep once."},
	{ID: "linked_list_reversal", Name: "In-place Linked List Reversal", Category: "linked_lists", Summary: "Three-pointer reversal walk."},
	{ID: "bfs", Name: "Breadth-First Search", Category: "trees_and_graphs", Summary: "Level-by-level exploration with a queue."},
	{ID: "dfs", Name: "Depth-First Search", Category: "trees_and_graphs", Summary: "Recursive descent carrying path state."},
	{ID: "two_heaps", Name: "Two Heaps", Category: "heaps_and_queues", Summary: "Balanced halves around a running boundary."},
	{ID: "modified_binary_search", Name: "Modified Binary Search", Category: "searching", Summary: "Binary search over any monotonic predicate."},
	{ID: "topological_sort", Name: "Topological Sort", Category: "trees_and_graphs", Summary: "Dependency peeling over a DAG."},
	{ID: "dynamic_programming", Name: "Dynamic Programming", Category: "dynamic_programming", Summary: "Overlapping subproblems, memoized."},
}

var fixturePatternStats = map[string]api.PatternStats{
	"sliding_window": {
		PatternID: "sliding_window", Name: "Sliding Window",
		Attempts: 7, Solved: 3, SolveRate: 0.43,
		AvgConfidence: 4.3, CalibrationGap: 1.6,
		LastAttemptAt: time.Date(2026, time.August, 20, 18, 30, 0, 0, time.UTC),
	},
	"two_pointers": {
		PatternID: "two_pointers", Name: "Two Pointers",
		Attempts: 9, Solved: 8, SolveRate: 0.89,
		AvgConfidence: 3.9, CalibrationGap: -0.4,
		LastAttemptAt: time.Date(2026, time.August, 23, 9, 10, 0, 0, time.UTC),
	},
}

var fixtureReflectionPrompts = []string{
	"You committed before the timer ran out. What signal in the statement pointed you at the pattern, and was it the one the analysis names?",
	"Where did your approach sketch diverge from the official approach? Name the exact step.",
	"If you saw a cousin of this problem next week with the numbers doubled, what would you try first?",
}

var fixtureBlindSpots = api.BlindSpotReport{
	GeneratedAt: time.Date(2026, time.August, 25, 7, 0, 0, 0, time.UTC),
	Overconfident: []api.BlindSpotEntry{
		{
			PatternID: "sliding_window", PatternName: "Sliding Window", Severity: 0.82,
			Evidence:   "Average confidence 4.3 against a 43% solve rate over 7 attempts.",
			Suggestion: "Commit at confidence 3 until the solve rate catches up; review the eviction loop before the next attempt.",
		},
	},
	Fragile: []api.BlindSpotEntry{
		{
			PatternID: "dynamic_programming", PatternName: "Dynamic Programming", Severity: 0.67,
			Evidence:   "3 of 4 recent solves needed help; unaided solve rate is 25%.",
			Suggestion: "Redo the last two problems cold before starting new ones.",
		},
	},
	Decaying: []api.BlindSpotEntry{
		{
			PatternID: "topological_sort", PatternName: "Topological Sort", Severity: 0.55,
			Evidence:   "Last clean solve was 6 weeks ago; the two attempts since were partial.",
			Suggestion: "One warm-up problem this week keeps the peeling procedure fresh.",
		},
	},
	Avoided: []api.BlindSpotEntry{
		{
			PatternID: "two_heaps", PatternName: "Two Heaps", Severity: 0.74,
			Evidence:   "2 abandons in the thinking phase and zero completed attempts.",
			Suggestion: "Start with Find Median from Data Stream; the first heap invariant is the whole trick.",
		},
	},
}

var fixtureLeetCode = map[string]api.LeetCodeContent{
	"two-sum-ii-input-array-is-sorted": {
		Slug:       "two-sum-ii-input-array-is-sorted",
		Title:      "Two Sum II - Input Array Is Sorted",
		Difficulty: "Easy",
		URL:        "https://leetcode.com/problems/two-sum-ii-input-array-is-sorted/",
		ContentHTML: "<p>Given a <b>1-indexed</b> array of integers <code>numbers</code> that is " +
			"already sorted in non-decreasing order, find two numbers such that they add up to a " +
			"specific <code>target</code> number.</p><ul><li>Your solution must use only constant " +
			"extra space.</li><li>The tests are generated such that there is exactly one solution.</li></ul>",
	},
	"longest-substring-without-repeating-characters": {
		Slug:       "longest-substring-without-repeating-characters",
		Title:      "Longest Substring Without Repeating Characters",
		Difficulty: "Medium",
		URL:        "https://leetcode.com/problems/longest-substring-without-repeating-characters/",
		ContentHTML: "<p>Given a string <code>s</code>, find the length of the <b>longest substring</b> " +
			"without duplicate characters.</p>",
	},
}

func tierProfile(tier string) api.Profile {
	p := api.Profile{
		Name:  "Demo User",
		Email: "demo@blindspot.dev",
	}
	switch tier {
	case "novice":
		p.PerformanceTier = "novice"
		p.ColdStartSeconds = 480
		p.StreakDays = 0
		p.CalibrationScore = 0
		p.TotalAttempts = 0
		p.SolveRate = 0
	case "sharp":
		p.PerformanceTier = "sharp"
		p.ColdStartSeconds = 300
		p.StreakDays = 12
		p.CalibrationScore = 0.81
		p.TotalAttempts = 64
		p.SolveRate = 0.72
	default:
		// Steady omits the override so the client falls back to its
		// tier table.
		p.PerformanceTier = "steady"
		p.StreakDays = 4
		p.CalibrationScore = 0.64
		p.TotalAttempts = 23
		p.SolveRate = 0.57
	}
	return p
}
