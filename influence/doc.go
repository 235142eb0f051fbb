// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package influence trains and serves the influence tier classifier and
computes engagement analytics over uploaded datasets.

# Datasets

Uploaded CSV files are read into a Table. Headers are matched to canonical
columns by substring rules (MapTrainingColumns, MapAnalyticsColumns), so
"Subscribers", "friends_count" and "followers" all feed the followers
feature. Unparsable numbers read as 0.

# Training

Train builds five features per row (followers, likes, shares, comments and
engagement rate), labels rows from the dataset's label column or, when there
is none, from follower counts (SynthesizeLabels), and fits two candidates on
a stratified 80/20 split:

  - Logistic Regression: multinomial softmax with L2 regularization
  - Random Forest: 100 bootstrap CART trees grown in parallel

The candidate with the strictly highest support-weighted F1 on the test
split becomes the Model. Training is deterministic for a given dataset.

# Serving

A Predictor holds the installed model behind a RWMutex, persists it as JSON
(ModelFileName) and serializes training runs with TryStartTraining.

# Analytics

TopInfluencers ranks a dataset's accounts by total engagement and flags the
top decile as viral. Summarize and EngagementTrend feed the dashboard.
*/
package influence
